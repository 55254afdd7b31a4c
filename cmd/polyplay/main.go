package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mlaroche/polyplay/config"
	"github.com/mlaroche/polyplay/playback"
	"github.com/mlaroche/polyplay/player"
)

var sparkRunes = []rune(" ▁▂▃▄▅▆▇█")

func main() {
	showWaveform := flag.Bool("waveform", false, "print an amplitude sparkline before playing each track")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("usage: polyplay [-waveform] <audiofile1> [audiofile2...]")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	pb := cfg.GetPlaybackConfig()
	wf := cfg.GetWaveformConfig()

	ctx := context.Background()
	mgr := playback.NewManager(player.NewEngine(), nil)

	var wg sync.WaitGroup
	for _, path := range flag.Args() {
		p := mgr.NewPlayer(playback.Options{
			UpdateInterval:  time.Duration(pb.UpdateIntervalMs) * time.Millisecond,
			Volume:          pb.Volume,
			Rate:            pb.Rate,
			FinishMode:      parseFinishMode(pb.FinishMode),
			OverrideSession: pb.OverrideSession,
		})
		if err := p.Prepare(ctx, path); err != nil {
			log.Fatalf("preparing %s: %v", path, err)
		}

		printTrackInfo(p, path)
		if *showWaveform {
			printWaveform(ctx, p, path, wf.SampleCount)
		}

		sub := p.Completions()
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sub.Close()
			select {
			case <-sub.C:
			case <-sub.Done:
			}
		}()

		if err := p.Start(ctx); err != nil {
			log.Fatalf("starting %s: %v", path, err)
		}
	}

	wg.Wait()
	if err := mgr.StopAll(ctx); err != nil {
		log.Printf("stopping: %v", err)
	}
}

func parseFinishMode(s string) player.FinishMode {
	switch s {
	case "pause":
		return player.FinishPause
	case "loop":
		return player.FinishLoop
	default:
		return player.FinishStop
	}
}

func printTrackInfo(p *playback.Controller, path string) {
	info, err := player.ReadTrackInfo(path)
	if err != nil {
		fmt.Println(filepath.Base(path))
		return
	}
	line := info.Title
	if info.Artist != "" {
		line = info.Artist + " - " + line
	}
	if d := p.MaxDuration(); d > 0 {
		line += fmt.Sprintf(" (%s)", formatDuration(d))
	}
	fmt.Println(line)
}

func printWaveform(ctx context.Context, p *playback.Controller, path string, sampleCount int) {
	session, err := p.ExtractWaveform(ctx, path, sampleCount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "waveform %s: %v\n", path, err)
		return
	}
	res := <-session.Result
	if res.Err != nil {
		fmt.Fprintf(os.Stderr, "waveform %s: %v\n", path, res.Err)
		return
	}
	fmt.Println(sparkline(res.Samples))
}

func sparkline(samples []float64) string {
	runes := make([]rune, len(samples))
	for i, s := range samples {
		idx := int(s * float64(len(sparkRunes)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkRunes) {
			idx = len(sparkRunes) - 1
		}
		runes[i] = sparkRunes[idx]
	}
	return string(runes)
}

func formatDuration(d time.Duration) string {
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}
