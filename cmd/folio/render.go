package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eringen/folio"
	"github.com/eringen/folio/content"
)

var (
	renderSrc      string
	renderOut      string
	renderThumbs   string
	renderWatch    bool
	renderDebounce time.Duration
	renderDebug    bool
)

var renderCmd = &cobra.Command{
	Use:   "render [kind...]",
	Short: "Render Markdown content to JSON payloads",
	Long: `render reads <src>/blog/*.md and <src>/projects/*.md, renders them to
<out>/blog.json and <out>/projects.json, and writes thumbnails for images
named in frontmatter. With --watch it keeps re-rendering on changes.`,
	ValidArgs: content.Kinds,
	Args:      cobra.OnlyValidArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := folio.NewLogger(renderDebug)
		if err != nil {
			return err
		}
		defer logger.Sync()

		r := content.NewRenderer(renderSrc, renderOut, renderThumbs, logger)

		if renderWatch {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return r.Watch(ctx, renderDebounce)
		}

		if len(args) == 0 {
			return r.RenderAll()
		}
		for _, kind := range args {
			if _, err := r.Render(kind); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	f := renderCmd.Flags()
	f.StringVar(&renderSrc, "src", "content", "content source directory")
	f.StringVar(&renderOut, "out", "data", "output directory for JSON payloads")
	f.StringVar(&renderThumbs, "thumbs", "public/thumbs", "thumbnail output directory (empty disables)")
	f.BoolVarP(&renderWatch, "watch", "w", false, "re-render on changes")
	f.DurationVar(&renderDebounce, "debounce", content.DefaultDebounce, "quiet period before re-rendering")
	f.BoolVar(&renderDebug, "debug", false, "verbose logging")
}
