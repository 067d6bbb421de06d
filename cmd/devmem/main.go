package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"devmem/internal/app"
	"devmem/internal/tui"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

func main() {
	root := &cobra.Command{
		Use:     "devmem",
		Short:   "devmem - chat with your indexed repositories",
		Long:    "devmem is a terminal client for DevMemory: sign in, pick repositories to index, and ask questions about your code across all of them.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(app.DefaultConfigPath())
			if err != nil {
				return err
			}
			application := app.NewApplication(cfg)
			defer application.Poller.Stop()
			return tui.Run(application)
		},
	}

	root.AddCommand(loginCmd(), logoutCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login [token]",
		Short: "Store the access token from the GitHub sign-in callback",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(app.DefaultConfigPath())
			if err != nil {
				return err
			}

			token := ""
			if len(args) == 1 {
				token = args[0]
			} else {
				fmt.Printf("Sign in at %s/auth/github/login and paste the token: ", cfg.BaseURL)
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil {
					return err
				}
				token = line
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return fmt.Errorf("no token given")
			}

			store := app.NewTokenStore(app.DefaultTokenPath(), app.NewLogger(cfg))
			if err := store.Set(token); err != nil {
				return err
			}
			fmt.Println("Token stored. Run devmem to start chatting.")
			return nil
		},
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(app.DefaultConfigPath())
			if err != nil {
				return err
			}
			store := app.NewTokenStore(app.DefaultTokenPath(), app.NewLogger(cfg))
			store.Clear()
			fmt.Println("Logged out.")
			return nil
		},
	}
}
