package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chronosync/chronosync-go/internal/auth"
	"github.com/chronosync/chronosync-go/internal/config"
	"github.com/chronosync/chronosync-go/internal/core"
	"github.com/chronosync/chronosync-go/internal/log"
	"github.com/chronosync/chronosync-go/internal/session"
	"github.com/chronosync/chronosync-go/internal/store"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type cliOptions struct {
	configPath  string
	serverURL   string
	displayName string
	username    string
	password    string
	lobby       string
	host        bool
}

func rootCmd() *cobra.Command {
	opts := &cliOptions{}

	cmd := &cobra.Command{
		Use:   "chronosync",
		Short: "ChronoSync game network client",
		Long:  "Interactive client for the ChronoSync lobby and replication protocol.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClient(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file")
	cmd.Flags().StringVar(&opts.serverURL, "server", "", "websocket endpoint (overrides config)")
	cmd.Flags().StringVar(&opts.displayName, "name", "", "display name to announce")
	cmd.Flags().StringVar(&opts.username, "user", "", "backend account username")
	cmd.Flags().StringVar(&opts.password, "password", "", "backend account password")
	cmd.Flags().StringVar(&opts.lobby, "lobby", "", "lobby to enter on startup")
	cmd.Flags().BoolVar(&opts.host, "host", false, "create the lobby instead of joining it")

	cmd.AddCommand(registerCmd(opts))
	return cmd
}

func registerCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a backend account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.username == "" || opts.password == "" {
				return fmt.Errorf("register requires --user and --password")
			}
			cfg, logger, err := loadConfig(opts)
			if err != nil {
				return err
			}
			client := auth.NewClient(cfg.AuthURL, cfg.APIKey, logger)
			if err := client.Register(cmd.Context(), opts.username, opts.password); err != nil {
				return err
			}
			fmt.Println("account created")
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.username, "user", "", "account username")
	cmd.Flags().StringVar(&opts.password, "password", "", "account password")
	return cmd
}

func loadConfig(opts *cliOptions) (config.Config, *zerolog.Logger, error) {
	bootstrap := log.New("info")
	cfg, _, err := config.Load(bootstrap, opts.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if opts.serverURL != "" {
		cfg.ServerURL = opts.serverURL
	}
	logger := log.New(cfg.LogLevel)
	return cfg, logger, nil
}

func runClient(parent context.Context, opts *cliOptions) error {
	cfg, logger, err := loadConfig(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings, err := store.Open(cfg.SettingsPath)
	if err != nil {
		return fmt.Errorf("open settings: %w", err)
	}
	defer settings.Close()

	client := core.New(cfg, settings, logger)
	installCallbacks(client)

	// Optional account login; the issued id becomes the announced one.
	if opts.username != "" {
		authClient := auth.NewClient(cfg.AuthURL, cfg.APIKey, logger)
		playerID, err := authClient.Login(ctx, opts.username, opts.password)
		if err != nil {
			return err
		}
		if playerID != "" {
			client.SetPlayerID(playerID)
		}
	}
	if opts.displayName != "" {
		client.SetDisplayName(opts.displayName)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- client.Run(runCtx) }()

	client.Connect(runCtx)

	if opts.lobby != "" {
		if opts.host {
			client.CreateLobby(opts.lobby, 0)
		} else {
			client.JoinLobby(opts.lobby)
		}
	}

	go inputLoop(runCtx, cancel, client)

	<-runCtx.Done()
	<-done
	return nil
}

func installCallbacks(client *core.Core) {
	client.SetCallbacks(core.Callbacks{
		OnReady: func(id, name string) {
			if name != "" {
				fmt.Printf("* connected as %s (%s)\n", name, id)
			} else {
				fmt.Printf("* connected as %s\n", id)
			}
		},
		OnDisconnect: func(reason string) {
			fmt.Printf("* connection lost: %s\n", reason)
		},
		OnError: func(reason string) {
			fmt.Printf("* connection error: %s\n", reason)
		},
		OnLobbyJoined: func(lobby string, host bool) {
			role := "joined"
			if host {
				role = "hosting"
			}
			fmt.Printf("* %s lobby %s\n", role, lobby)
		},
		OnLobbyLeft: func(lobby, reason string) {
			fmt.Printf("* left lobby %s (%s)\n", lobby, reason)
		},
		OnRosterChanged: func(members []session.Member) {
			names := make([]string, 0, len(members))
			for _, m := range members {
				names = append(names, m.Label())
			}
			fmt.Printf("* players: %s\n", strings.Join(names, ", "))
		},
		OnLobbyList: func(lobbies []session.LobbyInfo) {
			if len(lobbies) == 0 {
				fmt.Println("* no open lobbies")
				return
			}
			for _, l := range lobbies {
				if l.MaxPlayers > 0 {
					fmt.Printf("* lobby %s (max %d)\n", l.Name, l.MaxPlayers)
				} else {
					fmt.Printf("* lobby %s\n", l.Name)
				}
			}
		},
		OnGameStart: func(lobby string) {
			fmt.Printf("* match started in %s\n", lobby)
		},
		OnChat: func(msg session.ChatMessage) {
			switch {
			case msg.Private:
				fmt.Printf("[pm] %s: %s\n", msg.Sender(), msg.Text)
			case msg.Global:
				fmt.Printf("[global] %s: %s\n", msg.Sender(), msg.Text)
			default:
				fmt.Printf("%s: %s\n", msg.Sender(), msg.Text)
			}
		},
	})
}

// inputLoop reads stdin commands. Plain lines go to lobby chat.
func inputLoop(ctx context.Context, quit context.CancelFunc, client *core.Core) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			client.SendChat(line)
			continue
		}
		cmd, rest, _ := strings.Cut(line[1:], " ")
		rest = strings.TrimSpace(rest)
		switch cmd {
		case "quit", "exit":
			quit()
			return
		case "create":
			client.CreateLobby(rest, 0)
		case "join":
			client.JoinLobby(rest)
		case "leave":
			client.LeaveLobby()
		case "cancel":
			client.CancelLobby()
		case "start":
			client.StartMatch()
		case "list":
			client.RequestLobbyList()
		case "kick":
			client.Kick(rest)
		case "name":
			client.SetDisplayName(rest)
		case "all":
			client.SendGlobalChat(rest)
		case "msg":
			to, text, ok := strings.Cut(rest, " ")
			if !ok {
				// Bare /msg replies to the last private target.
				to = client.LastPrivateTarget(ctx)
				text = rest
			}
			if to == "" {
				fmt.Println("usage: /msg <player> <text>")
				continue
			}
			client.SendPrivate(ctx, to, strings.TrimSpace(text))
		case "who":
			for _, m := range client.Members() {
				fmt.Printf("* %s (%s)\n", m.Label(), m.ID)
			}
		default:
			fmt.Printf("unknown command /%s\n", cmd)
		}
	}
}
