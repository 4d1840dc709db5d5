package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wbe-dev/wbe"
)

// newLoadCmd builds `wbe load <url>`: fetch, parse, style, layout and
// paint one document, then either print its display list or (with
// --devtools) serve it on a canvas shell over a websocket.
func newLoadCmd(flags *cliFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <url>",
		Short: "Load a page and print or serve its paint commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, flags, args[0])
		},
	}
	return cmd
}

func runLoad(cmd *cobra.Command, flags *cliFlags, raw string) error {
	engine, err := buildEngine(flags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if flags.devtools {
		return serveDevtools(ctx, engine, raw)
	}

	page, err := engine.Load(ctx, raw)
	if err != nil {
		return err
	}

	for _, c := range engine.Visible(page) {
		switch c.Kind {
		case "text":
			fmt.Printf("text  (%4d,%4d) %q color=%s\n", c.Left, c.Top, c.Text, c.Color)
		case "rect":
			fmt.Printf("rect  (%4d,%4d)-(%4d,%4d) color=%s\n", c.Left, c.Top, c.Right, c.Bottom, c.Color)
		case "image":
			fmt.Printf("image (%4d,%4d)-(%4d,%4d) id=%s\n", c.Left, c.Top, c.Right, c.Bottom, c.ImageID)
		}
	}
	fmt.Printf("document height: %d, scroll: %d\n", page.Doc.Height, page.Scroll)
	return nil
}

// serveDevtools runs the devtools shell until ctx is cancelled, with
// the requested URL pre-filled as a query parameter for the page's
// onopen auto-load.
func serveDevtools(ctx context.Context, engine *wbe.Engine, raw string) error {
	srv := wbe.NewDevtoolsServer(engine)
	fmt.Printf("devtools: http://%s/?url=%s\n", engine.Config.DevtoolsAddr, raw)
	return srv.ListenAndServe(ctx)
}
