// pathsight-watch tails a running pathsight dashboard from the
// terminal: it subscribes to the detections or status websocket feed
// and prints each event as it arrives.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

type frameEvent struct {
	Seq     uint64 `json:"seq"`
	Objects []struct {
		ID       string  `json:"id"`
		Label    string  `json:"label"`
		X        float64 `json:"x"`
		Y        float64 `json:"y"`
		Width    float64 `json:"width"`
		Height   float64 `json:"height"`
		Movement string  `json:"movement"`
		Fading   bool    `json:"fading,omitempty"`
	} `json:"objects"`
	Advisories []struct {
		Text  string `json:"text"`
		Class string `json:"class"`
	} `json:"advisories"`
	LatencyMs int64 `json:"latency_ms"`
}

func main() {
	addr := flag.String("addr", "localhost:8787", "Dashboard host:port")
	feed := flag.String("feed", "detections", "Feed to tail: detections, status")
	raw := flag.Bool("raw", false, "Print raw JSON instead of formatted lines")
	flag.Parse()

	if *feed != "detections" && *feed != "status" {
		fmt.Fprintf(os.Stderr, "unknown feed %q\n", *feed)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	url := fmt.Sprintf("ws://%s/ws/%s", *addr, *feed)
	if err := tail(ctx, url, *feed, *raw); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "pathsight-watch: %v\n", err)
		os.Exit(1)
	}
}

func tail(ctx context.Context, url, feed string, raw bool) error {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", url, err)
	}
	defer conn.Close()

	fmt.Printf("connected to %s\n", url)

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		if raw || feed == "status" {
			fmt.Println(string(data))
			continue
		}
		printFrame(data)
	}
}

func printFrame(data []byte) {
	var f frameEvent
	if err := json.Unmarshal(data, &f); err != nil {
		fmt.Println(string(data))
		return
	}
	ts := time.Now().Format("15:04:05")
	fmt.Printf("[%s] frame %d (%dms): %d objects\n", ts, f.Seq, f.LatencyMs, len(f.Objects))
	for _, o := range f.Objects {
		mark := " "
		if o.Fading {
			mark = "~"
		}
		fmt.Printf("  %s %-16s cx=%.2f cy=%.2f area=%.3f %s\n",
			mark, o.Label, o.X+o.Width/2, o.Y+o.Height/2, o.Width*o.Height, o.Movement)
	}
	for _, a := range f.Advisories {
		fmt.Printf("  > [%s] %s\n", a.Class, a.Text)
	}
}
