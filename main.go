package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"parlo/audio"
	"parlo/encoder"
	"parlo/lang"
	"parlo/log"
	"parlo/playback"
	"parlo/remote"
	"parlo/session"
)

var version = "dev"

func main() {
	run()
}

var tuiProgram *tea.Program
var tuiMu sync.Mutex

var shutdownOnce sync.Once

func gracefulShutdown(ctrl *session.Controller) {
	shutdownOnce.Do(func() {
		if ctrl != nil {
			if n := ctrl.Completed(); n > 0 {
				log.SessionEnd(n)
			}
			ctrl.Close()
		}
		log.Close()
		tuiMu.Lock()
		p := tuiProgram
		tuiMu.Unlock()
		if p != nil {
			p.Quit()
		}
		os.Exit(0)
	})
}

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	if dev != nil {
		name = dev.Name
	}
	return "mic: " + name
}

func run() {
	serverFlag := flag.String("server", "http://localhost:8000", "Translation server base URL")
	srcFlag := flag.String("src", "en", "Source language code")
	tgtFlag := flag.String("tgt", "fr", "Target language code")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	timeoutFlag := flag.Duration("timeout", session.DefaultRemoteTimeout, "Remote request timeout")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("parlo %s\n", version)
		os.Exit(0)
	}

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	} else {
		log.SessionStart(*serverFlag, *srcFlag, *tgtFlag)
	}

	if !lang.Known(*srcFlag) {
		log.Warnf("source language %q not in the supported table", *srcFlag)
	}
	if !lang.Known(*tgtFlag) {
		log.Warnf("target language %q not in the supported table", *tgtFlag)
	}

	ctx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Printf("Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer ctx.Close()

	var selectedDevice *audio.DeviceInfo
	if *deviceFlag != "" {
		if devices, err := ctx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == *deviceFlag {
					selectedDevice = &devices[i]
					break
				}
			}
		}
		if selectedDevice == nil {
			fmt.Printf("Warning: device %q not found, using system default\n", *deviceFlag)
		}
	} else if *setupFlag {
		selectedDevice, err = audio.SelectDevice(ctx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			selectedDevice = nil
		}
	}
	if selectedDevice != nil {
		log.Info("recording_device: " + selectedDevice.Name)
	}
	bt := selectedDevice != nil && audio.IsBluetooth(selectedDevice.Name)
	if bt {
		log.Warn("bluetooth microphone selected")
	}

	recorder := audio.NewRecorder(ctx, selectedDevice, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	}, encoder.Preferred...)

	client := remote.New(*serverFlag)
	go client.Warm()

	player := playback.New()

	ctrl := session.New(recorder, client, player, session.Config{
		Source:        *srcFlag,
		Target:        *tgtFlag,
		RemoteTimeout: *timeoutFlag,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		gracefulShutdown(ctrl)
	}()

	tuiMu.Lock()
	tuiProgram = NewTUIProgram(ctrl, player, deviceLineText(selectedDevice), bt)
	p := tuiProgram
	tuiMu.Unlock()

	if _, err := p.Run(); err != nil {
		log.Errorf("TUI error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	gracefulShutdown(ctrl)
}
