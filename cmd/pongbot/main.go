package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/mo-shahab/quadpong/bot"
	"github.com/mo-shahab/quadpong/config"
	"github.com/mo-shahab/quadpong/logger"
)

func main() {
	addr := flag.String("addr", config.DefaultListenAddr, "server address")
	name := flag.String("name", "bot", "player name")
	pattern := flag.String("moves", "1,1,0,-1,-1,0", "comma-separated directions to cycle through")
	every := flag.Int("every", 30, "print the ball every N states")
	interval := flag.Duration("interval", 100*time.Millisecond, "time between moves")
	flag.Parse()

	moves, err := parseMoves(*pattern)
	if err != nil {
		logger.Fatal("invalid -moves", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	c, err := bot.Dial(dctx, *addr, *name)
	cancel()
	if err != nil {
		logger.Fatal("could not join", "addr", *addr, "error", err)
	}
	defer c.Close()

	color.New(color.FgGreen, color.Bold).Printf("%s joined as %s\n", *name, c.Position())

	go func() {
		<-ctx.Done()
		c.Close()
	}()

	if len(moves) > 0 {
		go drive(ctx, c, moves, *interval)
	}

	ballColor := color.New(color.FgCyan)
	for n := 0; ; n++ {
		snap, err := c.Next()
		if err != nil {
			if ctx.Err() == nil {
				color.New(color.FgRed).Fprintf(os.Stderr, "connection ended: %v\n", err)
			}
			return
		}
		if *every > 0 && n%*every == 0 {
			ballColor.Printf("ball %v", snap.Ball.Center)
			fmt.Printf("  paddles %d\n", len(snap.Paddles))
		}
	}
}

func drive(ctx context.Context, c *bot.Client, moves []int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Move(moves[i%len(moves)]); err != nil {
				return
			}
		}
	}
}

func parseMoves(s string) ([]int, error) {
	var out []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		d, err := strconv.Atoi(f)
		if err != nil || d < -1 || d > 1 {
			return nil, fmt.Errorf("bad direction %q", f)
		}
		out = append(out, d)
	}
	return out, nil
}
