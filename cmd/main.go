package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Anil1013/mob13r-platform-sub000/internal/app"
	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/shutdown"
)

func main() {
	application, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	if err := application.Run(ctx); err != nil {
		application.Log.Error("server stopped", "error", err)
		application.Close()
		os.Exit(1)
	}
	application.Log.Info("server stopped")
}
