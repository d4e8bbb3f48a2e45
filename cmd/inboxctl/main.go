package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Digigit24/celiyo-new-sub001/internal/api"
	"github.com/Digigit24/celiyo-new-sub001/internal/config"
	"github.com/Digigit24/celiyo-new-sub001/internal/message"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "inboxctl",
		Usage: "control a running inboxd",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: config.Path(), Usage: "path to config file", EnvVars: []string{"INBOX_CONFIG"}},
			&cli.StringFlag{Name: "socket", Usage: "daemon socket (overrides config)"},
			&cli.BoolFlag{Name: "json", Usage: "output in JSON format"},
			&cli.DurationFlag{Name: "timeout", Value: 15 * time.Second, Usage: "per-call timeout"},
		},
		Commands: []*cli.Command{
			{
				Name:      "open",
				Usage:     "open the conversation with a participant",
				ArgsUsage: "<identity>",
				Action: withClient(func(ctx context.Context, c *cli.Context, cl *api.Client) error {
					if c.NArg() != 1 {
						return cli.Exit("usage: inboxctl open <identity>", 1)
					}
					resp, err := cl.Open(ctx, c.Args().First())
					if err != nil {
						return err
					}
					return printTimeline(c, resp)
				}),
			},
			{
				Name:  "close",
				Usage: "close the open conversation",
				Action: withClient(func(ctx context.Context, _ *cli.Context, cl *api.Client) error {
					return cl.CloseConversation(ctx)
				}),
			},
			{
				Name:  "refresh",
				Usage: "reload the history of the open conversation",
				Action: withClient(func(ctx context.Context, c *cli.Context, cl *api.Client) error {
					resp, err := cl.Refresh(ctx)
					if err != nil {
						return err
					}
					return printTimeline(c, resp)
				}),
			},
			{
				Name:  "timeline",
				Usage: "show the open conversation",
				Action: withClient(func(ctx context.Context, c *cli.Context, cl *api.Client) error {
					resp, err := cl.Timeline(ctx)
					if err != nil {
						return err
					}
					return printTimeline(c, resp)
				}),
			},
			{
				Name:      "send",
				Usage:     "send a text message",
				ArgsUsage: "<text...>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "to", Usage: "recipient (defaults to the open conversation)"},
				},
				Action: withClient(func(ctx context.Context, c *cli.Context, cl *api.Client) error {
					text := strings.Join(c.Args().Slice(), " ")
					if strings.TrimSpace(text) == "" {
						return cli.Exit("usage: inboxctl send [--to <identity>] <text...>", 1)
					}
					return cl.SendText(ctx, &api.SendTextRequest{To: c.String("to"), Text: text})
				}),
			},
			{
				Name:      "send-media",
				Usage:     "upload a file and send it",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "to", Usage: "recipient (defaults to the open conversation)"},
					&cli.StringFlag{Name: "type", Usage: "image, video, audio or document (inferred when empty)"},
					&cli.StringFlag{Name: "caption"},
				},
				Action: withClient(func(ctx context.Context, c *cli.Context, cl *api.Client) error {
					if c.NArg() != 1 {
						return cli.Exit("usage: inboxctl send-media [--to <identity>] <file>", 1)
					}
					path := c.Args().First()
					data, err := os.ReadFile(path)
					if err != nil {
						return err
					}
					resp, err := cl.SendMedia(ctx, &api.SendMediaRequest{
						To:        c.String("to"),
						FileName:  filepath.Base(path),
						Data:      data,
						MediaType: message.MediaType(c.String("type")),
						Caption:   c.String("caption"),
					})
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return outputJSON(resp)
					}
					fmt.Printf("Sent media %s\n", resp.MediaID)
					return nil
				}),
			},
			{
				Name:  "conversations",
				Usage: "list conversations",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tab", Value: "all", Usage: "all, mine or unassigned"},
					&cli.StringFlag{Name: "search"},
				},
				Action: withClient(func(ctx context.Context, c *cli.Context, cl *api.Client) error {
					resp, err := cl.Conversations(ctx, &api.ConversationsRequest{Tab: c.String("tab"), Search: c.String("search")})
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return outputJSON(resp)
					}
					if len(resp.Conversations) == 0 {
						fmt.Println("No conversations.")
						return nil
					}
					for _, s := range resp.Conversations {
						unread := " "
						if s.Unread {
							unread = "*"
						}
						fmt.Printf("%s %-3s %-20s %-24s %s\n", unread, s.Channel.Label(), s.ID, s.Name, s.LastMessage)
					}
					return nil
				}),
			},
			{
				Name:  "status",
				Usage: "show daemon status",
				Action: withClient(func(ctx context.Context, c *cli.Context, cl *api.Client) error {
					resp, err := cl.Status(ctx)
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return outputJSON(resp)
					}
					active := resp.Active
					if active == "" {
						active = "(none)"
					}
					fmt.Printf("Active:  %s\n", active)
					for _, f := range resp.Feeds {
						fmt.Printf("Feed:    %-10s %s\n", f.Name, f.State)
					}
					fmt.Printf("Dropped: %d\n", resp.DroppedEvents)
					fmt.Printf("Uptime:  %dms\n", resp.UptimeMs)
					return nil
				}),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type action func(ctx context.Context, c *cli.Context, cl *api.Client) error

func withClient(fn action) cli.ActionFunc {
	return func(c *cli.Context) error {
		socket, err := socketPath(c)
		if err != nil {
			return err
		}
		cl, err := api.Dial(socket)
		if err != nil {
			return fmt.Errorf("cannot connect to daemon at %s: %w", socket, err)
		}
		defer func() { _ = cl.Close() }()

		ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
		defer cancel()
		return fn(ctx, c, cl)
	}
}

func socketPath(c *cli.Context) (string, error) {
	if s := c.String("socket"); s != "" {
		return s, nil
	}
	cfg, err := config.LoadOrDefault(c.String("config"))
	if err != nil {
		return "", err
	}
	return cfg.Daemon.Socket, nil
}

func printTimeline(c *cli.Context, t *api.TimelineResponse) error {
	if c.Bool("json") {
		return outputJSON(t)
	}
	if t.Identity == "" {
		fmt.Println("No conversation open.")
		return nil
	}
	fmt.Printf("%s [%s] gen %d\n", t.Identity, t.State, t.Generation)
	if t.Error != "" {
		fmt.Printf("error: %s\n", t.Error)
	}
	for _, m := range t.Messages {
		arrow := "<"
		if m.Direction == message.Outbound {
			arrow = ">"
		}
		fmt.Printf("%s %s %s %s\n", m.Timestamp.Local().Format("2006-01-02 15:04"), arrow, m.Preview(), statusMark(m.Status))
	}
	return nil
}

func statusMark(s message.Status) string {
	if s == "" {
		return ""
	}
	return "(" + string(s) + ")"
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
