package renderer

const sceneVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPosition;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec4 aColor;
layout (location = 3) in vec2 aTexCoord;

uniform mat4 uMVP;
uniform mat4 uNormal;

out vec3 vNormal;
out vec4 vColor;
out vec2 vTexCoord;

void main() {
	gl_Position = uMVP * vec4(aPosition, 1.0);
	vNormal = mat3(uNormal) * aNormal;
	vColor = aColor;
	vTexCoord = aTexCoord;
}
`

const sceneFragmentShader = `
#version 410 core

in vec3 vNormal;
in vec4 vColor;
in vec2 vTexCoord;

uniform sampler2D uTexture;
uniform bool uTextured;
uniform bool uModulate;
uniform bool uAlphaTest;
uniform float uAlphaThreshold;
uniform bool uLighting;
uniform vec3 uLightDir;

out vec4 FragColor;

void main() {
	vec4 color = vColor;
	if (uTextured) {
		vec4 texel = texture(uTexture, vTexCoord);
		color = uModulate ? color * texel : texel;
	}
	if (uAlphaTest && color.a < uAlphaThreshold) {
		discard;
	}
	if (uLighting) {
		float diffuse = max(dot(normalize(vNormal), -uLightDir), 0.0);
		color.rgb *= 0.45 + 0.55 * diffuse;
	}
	FragColor = color;
}
`

const lineVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPosition;

uniform mat4 uMVP;

void main() {
	gl_Position = uMVP * vec4(aPosition, 1.0);
}
`

const lineFragmentShader = `
#version 410 core

uniform vec4 uColor;

out vec4 FragColor;

void main() {
	FragColor = uColor;
}
`
