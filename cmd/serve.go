package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	glog "github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"lorebook/pkg/lorebook"
	"lorebook/pkg/server"
)

var addr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the editor API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		book, err := lorebook.Open(bookPath)
		if err != nil {
			return err
		}

		srv := server.NewServer(ctx, newGateway(ctx), book, store())
		srv.BookPath = bookPath
		srv.Echo.Logger.SetLevel(glog.INFO)
		if verbose {
			srv.Echo.Logger.SetLevel(glog.DEBUG)
		}

		listen := addr
		if listen == "" {
			listen = ":8080"
			if port := os.Getenv("PORT"); port != "" {
				listen = ":" + port
			}
		}

		finishedShutDown := make(chan error, 1)
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			finishedShutDown <- srv.Shutdown(shutdownCtx)
		}()

		if err := srv.Start(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		if err := <-finishedShutDown; err != nil {
			return err
		}
		log.Info("lorebook saved", "path", bookPath, "entries", book.Len())
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080 or :$PORT)")
	rootCmd.AddCommand(serveCmd)
}
