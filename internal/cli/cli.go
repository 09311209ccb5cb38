// SPDX-License-Identifier: AGPL-3.0-only
package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"syscall"
	"time"

	"github.com/fluffyriot/statsync/internal/api/handlers"
	"github.com/fluffyriot/statsync/internal/config"
	"github.com/fluffyriot/statsync/internal/fetcher"
	"github.com/fluffyriot/statsync/internal/helpers"
	"github.com/fluffyriot/statsync/internal/middleware"
	"github.com/fluffyriot/statsync/internal/store"
	"github.com/fluffyriot/statsync/internal/worker"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var rootCmd = &cobra.Command{
	Use:   "statsync",
	Short: "Social account metrics collector",
	Long:  "statsync tracks social accounts across platforms and collects follower and engagement metrics on demand or on a schedule.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(setCookieCmd)
	rootCmd.AddCommand(versionCmd)

	fetchCmd.Flags().Bool("all", false, "fetch every tracked account")
}

func openStore(cfg *config.AppConfig) *store.Store {
	st, err := store.Open(cfg.DataFile)
	if err != nil {
		log.Fatalf("Failed to open data file: %v", err)
	}
	return st
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server and background worker",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		st := openStore(cfg)
		client := fetcher.NewClient(cfg, st)
		w := worker.NewWorker(st, client, cfg)

		interval := st.Settings().WorkerIntervalMinutes
		if interval == 0 {
			interval = cfg.WorkerIntervalMinutes
		}
		if interval > 0 {
			w.Start(time.Duration(interval) * time.Minute)
		}

		r := gin.Default()
		r.Use(middleware.SecurityHeadersMiddleware())
		registerRoutes(r, handlers.NewHandler(st, client, cfg, w))

		log.Printf("statsync %s listening on :%s", config.AppVersion, cfg.Port)
		if err := r.Run(":" + cfg.Port); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	},
}

func registerRoutes(r *gin.Engine, h *handlers.Handler) {
	api := r.Group("/api")

	api.GET("/health", h.HealthCheckHandler)

	api.GET("/accounts", h.ListAccountsHandler)
	api.POST("/accounts", h.CreateAccountHandler)
	api.GET("/accounts/:platform/:id", h.GetAccountHandler)
	api.DELETE("/accounts/:platform/:id", h.DeleteAccountHandler)
	api.PUT("/accounts/:platform/:id/cookie", h.SetCookieHandler)
	api.GET("/accounts/:platform/:id/fetch", h.FetchAccountHandler)
	api.POST("/fetch-all", h.TriggerFetchAllHandler)

	api.GET("/folders", h.ListFoldersHandler)
	api.POST("/folders", h.CreateFolderHandler)
	api.DELETE("/folders/:id", h.DeleteFolderHandler)

	api.GET("/settings", h.GetSettingsHandler)
	api.PUT("/settings", h.UpdateSettingsHandler)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [platform] [handle]",
	Short: "Run fetch cycles from the command line, streaming progress to stdout",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		st := openStore(cfg)
		client := fetcher.NewClient(cfg, st)

		all, _ := cmd.Flags().GetBool("all")
		if all {
			client.FetchAll(context.Background())
			return
		}

		if len(args) != 2 {
			log.Fatal("usage: statsync fetch <platform> <handle> (or --all)")
		}

		acct := findAccount(st, args[0], args[1])
		if err := client.FetchAccount(context.Background(), acct, os.Stdout); err != nil {
			log.Fatalf("Fetch failed: %v", err)
		}
	},
}

var setCookieCmd = &cobra.Command{
	Use:   "set-cookie <platform> <handle>",
	Short: "Store a credential cookie for an account",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		st := openStore(cfg)

		acct := findAccount(st, args[0], args[1])

		fmt.Printf("Paste cookie header for %s/%s: ", acct.Platform, acct.Handle)
		raw, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			log.Fatalf("\nFailed to read cookie: %v", err)
		}
		fmt.Println()

		if err := st.SetCookie(acct.Platform, acct.ID, string(raw)); err != nil {
			log.Fatalf("Failed to store cookie: %v", err)
		}
		fmt.Println("Cookie stored successfully.")
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the statsync version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("statsync", config.AppVersion)
	},
}

func findAccount(st *store.Store, platform, handle string) *store.Account {
	if !helpers.IsKnownPlatform(platform) {
		log.Fatalf("Platform %q not recognized", platform)
	}
	for _, a := range st.Accounts(platform) {
		if a.Handle == handle {
			return a
		}
	}
	log.Fatalf("Account %s/%s not tracked", platform, handle)
	return nil
}
