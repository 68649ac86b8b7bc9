package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/Faultbox/pmviewer/internal/assets"
	"github.com/Faultbox/pmviewer/internal/config"
	"github.com/Faultbox/pmviewer/internal/export"
	"github.com/Faultbox/pmviewer/internal/report"
	"github.com/Faultbox/pmviewer/pkg/pixbuf"
)

func cmdInfo(cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return usageError("info <file>")
	}

	asset, err := newLoader(cfg, true).Load(args[0])
	if err != nil {
		return err
	}
	s := asset.Scene()

	var textures *assets.TextureSet
	if asset.Model != nil {
		textures = asset.Model.Textures
	} else {
		textures = asset.World.Textures
	}

	fmt.Printf("File:      %s\n", args[0])
	fmt.Printf("Type:      %s\n", asset.Kind)
	fmt.Printf("Nodes:     %d\n", s.NodeCount())
	fmt.Printf("Geometry:  %d\n", len(s.Resources.Geometries))
	fmt.Printf("Triangles: %d\n", s.TriangleCount())
	fmt.Printf("Textures:  %d (%s)\n", len(textures.Images), textures.Path)
	if b := s.Bounds(); !b.Empty() {
		fmt.Printf("Bounds:    (%g, %g, %g) - (%g, %g, %g)\n", b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
	}
	if len(s.Warnings) > 0 {
		fmt.Printf("\nWarnings (%d):\n", len(s.Warnings))
		for _, w := range s.Warnings {
			fmt.Printf("  %s\n", w)
		}
	}
	return nil
}

func cmdDump(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	out := fs.String("o", "", "Output file, - for stdout (default <file>.info.txt)")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return usageError("dump [-o file] <file>")
	}
	path := fs.Arg(0)

	asset, err := newLoader(cfg, true).Load(path)
	if err != nil {
		return err
	}

	write := func(w io.Writer) error {
		if m := asset.Model; m != nil {
			if err := report.WriteModel(w, m.PMM, m.Textures.TPL); err != nil {
				return err
			}
		} else if err := report.WriteWorld(w, asset.World.PMW, asset.World.Textures.TPL); err != nil {
			return err
		}
		return report.WriteScene(w, asset.Scene())
	}

	if *out == "-" {
		bw := bufio.NewWriter(os.Stdout)
		return multierr.Append(write(bw), bw.Flush())
	}
	if *out == "" {
		*out = assets.InfoPath(path)
	}
	f, err := os.Create(*out)
	if err != nil {
		return &assets.FileAccessError{Op: "open info file", Path: *out, Err: err}
	}
	bw := bufio.NewWriter(f)
	if err := multierr.Combine(write(bw), bw.Flush(), f.Close()); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", *out)
	return nil
}

// textureSet returns the decoded textures for a model, a world or a bare
// texture container.
func textureSet(loader *assets.Loader, path string) (*assets.TextureSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &assets.FileAccessError{Op: "open file", Path: path, Err: err}
	}
	if assets.Detect(data) == assets.KindTextures {
		return loader.Textures(path)
	}
	asset, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	if asset.Model != nil {
		return asset.Model.Textures, nil
	}
	return asset.World.Textures, nil
}

func cmdTextures(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("textures", flag.ExitOnError)
	formatName := fs.String("format", cfg.Export.Format, "Image format: png, webp or tga")
	thumb := fs.Int("thumb", cfg.Export.ThumbnailSize, "Thumbnail size in pixels (0 = none)")
	fs.Parse(args)
	if fs.NArg() < 1 || fs.NArg() > 2 {
		return usageError("textures [-format f] [-thumb n] <file> [dir]")
	}
	format, err := export.ParseFormat(*formatName)
	if err != nil {
		return err
	}
	outDir := cfg.Export.Dir
	if fs.NArg() == 2 {
		outDir = fs.Arg(1)
	}

	set, err := textureSet(newLoader(cfg, false), fs.Arg(0))
	if err != nil {
		return err
	}

	base := filepath.Base(set.Path)
	written, err := saveTextures(set.Images, outDir, base, format, *thumb)
	if err != nil {
		return err
	}
	fmt.Printf("Exported %d of %d textures to %s\n", written, len(set.Images), outDir)
	if set.DecodeErr != nil {
		fmt.Fprintf(os.Stderr, "Some textures failed to decode: %v\n", set.DecodeErr)
	}
	return nil
}

func textureFileName(base string, index int, format export.Format) string {
	return fmt.Sprintf("%s_%03d%s", base, index, format.Ext())
}

// saveTextures writes every decoded image and, when thumb > 0, a scaled
// copy under dir/thumbs. Nil images are skipped.
func saveTextures(images []*pixbuf.Image, dir, base string, format export.Format, thumb int) (int, error) {
	written := 0
	for i, img := range images {
		if img == nil {
			continue
		}
		name := textureFileName(base, i, format)
		if err := export.SaveImage(filepath.Join(dir, name), img, format); err != nil {
			return written, err
		}
		if thumb > 0 {
			if err := export.SaveImage(filepath.Join(dir, "thumbs", name), export.Thumbnail(img, thumb), format); err != nil {
				return written, err
			}
		}
		written++
	}
	return written, nil
}

func cmdOBJ(cfg *config.Config, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usageError("obj <file> [dir]")
	}
	outDir := cfg.Export.Dir
	if len(args) == 2 {
		outDir = args[1]
	}
	format, err := export.ParseFormat(cfg.Export.Format)
	if err != nil {
		return err
	}

	asset, err := newLoader(cfg, true).Load(args[0])
	if err != nil {
		return err
	}
	s := asset.Scene()
	base := filepath.Base(args[0])

	if _, err := saveTextures(s.Resources.Textures, outDir, base, format, 0); err != nil {
		return err
	}

	mtlName := base + ".mtl"
	err = writeFile(filepath.Join(outDir, mtlName), func(w io.Writer) error {
		return export.WriteMTL(w, s, func(i int) string { return textureFileName(base, i, format) })
	})
	if err != nil {
		return err
	}

	objPath := filepath.Join(outDir, base+".obj")
	if err := writeFile(objPath, func(w io.Writer) error { return export.WriteOBJ(w, s, mtlName) }); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%d triangles)\n", objPath, s.TriangleCount())
	return nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()
	return write(f)
}
