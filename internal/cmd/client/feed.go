package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// NewFeedCommand constructs the `feed` command group and subcommands.
func NewFeedCommand(baseURL BaseURLFunc) *cobra.Command {
	feedCmd := &cobra.Command{Use: "feed", Short: "Feed operations"}
	feedCmd.AddCommand(
		newFeedSubmitCommand(),
		newFeedListCommand(),
		newFeedStatsCommand(),
		newFeedWatchCommand(baseURL),
	)
	return feedCmd
}

func newFeedSubmitCommand() *cobra.Command {
	submitCmd := &cobra.Command{
		Use:   "submit",
		Short: "Append an event to the feed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			identity, _ := cmd.Flags().GetString("identity")
			data, _ := cmd.Flags().GetString("data")
			file, _ := cmd.Flags().GetString("file")
			if identity == "" {
				return errors.New("--identity is required (or set FEED_IDENTITY)")
			}
			if data != "" && file != "" {
				return errors.New("use only one of --data or --file")
			}

			payload := []byte(data)
			if file != "" {
				var err error
				if file == "-" {
					payload, err = io.ReadAll(cmd.InOrStdin())
				} else {
					payload, err = os.ReadFile(file)
				}
				if err != nil {
					return fmt.Errorf("read payload: %w", err)
				}
			}

			rec, err := getTransport().Submit(cmd.Context(), identity, payload)
			if err != nil {
				return err
			}
			return printJSON(cmd, decodedRecord(rec.Seq, rec.InsertedAt, rec.Payload))
		},
	}
	submitCmd.Flags().String("identity", os.Getenv("FEED_IDENTITY"), "Caller identity sent as the bearer token")
	submitCmd.Flags().String("data", "", "Payload data")
	submitCmd.Flags().String("file", "", "Read payload from file ('-' for stdin)")
	return submitCmd
}

func newFeedListCommand() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print every held event, oldest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reverse, _ := cmd.Flags().GetBool("reverse")
			recs, err := getTransport().List(cmd.Context())
			if err != nil {
				return err
			}
			for i := range recs {
				r := recs[i]
				if reverse {
					r = recs[len(recs)-1-i]
				}
				if err := printJSON(cmd, decodedRecord(r.Seq, r.InsertedAt, r.Payload)); err != nil {
					return err
				}
			}
			return nil
		},
	}
	listCmd.Flags().Bool("reverse", false, "Newest first")
	return listCmd
}

func newFeedStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show feed stats",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := getTransport().Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, st)
		},
	}
}

// newFeedWatchCommand prints notifications from the websocket stream, one
// JSON document per line.
func newFeedWatchCommand(baseURL BaseURLFunc) *cobra.Command {
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream feed notifications over websocket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			url := wsURL(baseURL()) + "/v1/feed/ws"

			conn, _, err := websocket.DefaultDialer.DialContext(cmd.Context(), url, nil)
			if err != nil {
				return fmt.Errorf("dial %s: %w", url, err)
			}
			defer conn.Close()
			go func() {
				<-cmd.Context().Done()
				_ = conn.Close()
			}()

			for n := 0; limit <= 0 || n < limit; n++ {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					if cmd.Context().Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
						return nil
					}
					return err
				}
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(string(msg))); err != nil {
					return err
				}
			}
			return nil
		},
	}
	watchCmd.Flags().Int("limit", 0, "Stop after N notifications (0 = forever)")
	return watchCmd
}

func wsURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return base
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}
