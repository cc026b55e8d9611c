package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/pairsphere/paird/internal/hub"
)

var statusAddr string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show rendezvous server status",
	Long:  "Query a running paird server's status endpoint and display its counters.",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusAddr, "addr", "127.0.0.1:7690", "server address")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + statusAddr + "/statusz")
	if err != nil {
		return fmt.Errorf("paird status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("paird status: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("paird status: read response: %w", err)
	}

	var stats hub.Stats
	if err := json.Unmarshal(body, &stats); err != nil {
		return fmt.Errorf("paird status: parse response: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Connections:      %d\n", stats.Connections)
	fmt.Fprintf(w, "Registered peers: %d\n", stats.Peers)
	fmt.Fprintf(w, "Active sessions:  %d\n", stats.Sessions)
	fmt.Fprintf(w, "Pending requests: %d\n", stats.PendingRequests)
	fmt.Fprintf(w, "Uptime:           %s\n", (time.Duration(stats.UptimeMillis) * time.Millisecond).Round(time.Second))
	return nil
}
