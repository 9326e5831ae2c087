// Command sync_probe polls the collab API sync status endpoint until pending
// changes drain, optionally forcing a reconciliation pass first. Intended for
// deploy checks: a nonzero exit means unsynced local state remains.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

type syncStatus struct {
	IsOnline        bool       `json:"isOnline"`
	IsSyncing       bool       `json:"isSyncing"`
	PendingChanges  int        `json:"pendingChanges"`
	LastSynced      *time.Time `json:"lastSynced"`
	StorageDegraded bool       `json:"storageDegraded"`
}

type envelope struct {
	Data syncStatus `json:"data"`
}

func main() {
	var (
		base     string
		token    string
		force    bool
		deadline time.Duration
		interval time.Duration
		timeout  time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "collab API base URL")
	flag.StringVar(&token, "token", os.Getenv("COLLAB_TOKEN"), "bearer token for the API")
	flag.BoolVar(&force, "force", false, "request an immediate reconciliation pass first")
	flag.DurationVar(&deadline, "deadline", 2*time.Minute, "how long to wait for pending changes to drain")
	flag.DurationVar(&interval, "interval", 5*time.Second, "poll interval")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	client := &http.Client{Timeout: timeout}

	if force {
		if err := forceSync(client, base, token); err != nil {
			log.Fatalf("failed to force sync: %v", err)
		}
		fmt.Println("reconciliation pass requested")
	}

	stop := time.Now().Add(deadline)
	for {
		status, err := fetchStatus(client, base, token)
		if err != nil {
			log.Fatalf("failed to fetch sync status: %v", err)
		}
		printStatus(status)

		if status.PendingChanges == 0 && !status.IsSyncing {
			fmt.Println("all local changes synced")
			return
		}
		if time.Now().After(stop) {
			fmt.Printf("deadline reached with %d pending changes\n", status.PendingChanges)
			os.Exit(1)
		}
		time.Sleep(interval)
	}
}

func fetchStatus(client *http.Client, base, token string) (syncStatus, error) {
	req, err := http.NewRequest(http.MethodGet, apiURL(base, "/api/v1/sync/status"), nil)
	if err != nil {
		return syncStatus{}, err
	}
	authorize(req, token)

	resp, err := client.Do(req)
	if err != nil {
		return syncStatus{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return syncStatus{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return syncStatus{}, fmt.Errorf("status endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return syncStatus{}, fmt.Errorf("decode status response: %w", err)
	}
	return env.Data, nil
}

func forceSync(client *http.Client, base, token string) error {
	req, err := http.NewRequest(http.MethodPost, apiURL(base, "/api/v1/sync/force"), nil)
	if err != nil {
		return err
	}
	authorize(req, token)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("force endpoint returned %d", resp.StatusCode)
	}
	return nil
}

func authorize(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func apiURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}

func printStatus(s syncStatus) {
	last := "never"
	if s.LastSynced != nil {
		last = s.LastSynced.Format(time.RFC3339)
	}
	fmt.Printf("online=%t syncing=%t pending=%d degraded=%t last_synced=%s\n",
		s.IsOnline, s.IsSyncing, s.PendingChanges, s.StorageDegraded, last)
}
