// Package log writes diagnostics and translation history to files under an
// OS-specific (or flag-overridden) directory. All functions are safe to call
// before Init; they are no-ops until logging is ready.
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog       zerolog.Logger
	diagFile      *os.File
	translateFile *os.File
	logMu         sync.Mutex
	logReady      bool
	pid           int
	dir           string
)

// RequestStats is one remote call as seen by the HTTP client.
type RequestStats struct {
	Op         string
	Status     int
	ConnReused bool
	DNSMs      float64
	TLSMs      float64
	TTFBMs     float64
	TotalMs    float64
	SentKB     float64
	RecvKB     float64
}

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		if !filepath.IsAbs(flagPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, flagPath), nil
		}
		return flagPath, nil
	}

	// Priority 2: PARLO_LOG_PATH environment variable
	envPath := os.Getenv("PARLO_LOG_PATH")
	if envPath != "" {
		if !filepath.IsAbs(envPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, envPath), nil
		}
		return envPath, nil
	}

	// Priority 3: default OS-specific location
	return getDefaultDir()
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	translatePath := filepath.Join(dir, "translation_log.txt")
	translateFile, err = os.OpenFile(translatePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if translateFile != nil {
		translateFile.Close()
		translateFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Request(s RequestStats) {
	if !logReady {
		return
	}

	connStatus := "new"
	if s.ConnReused {
		connStatus = "reused"
	}

	diagLog.Info().
		Str("op", s.Op).
		Int("status", s.Status).
		Str("conn", connStatus).
		Float64("dns_ms", s.DNSMs).
		Float64("tls_ms", s.TLSMs).
		Float64("ttfb_ms", s.TTFBMs).
		Float64("total_ms", s.TotalMs).
		Float64("sent_kb", s.SentKB).
		Float64("recv_kb", s.RecvKB).
		Msg("request")
}

// TranslationText appends one transcript/translation pair to the plain-text
// history file.
func TranslationText(src, tgt, transcript, translation string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	line := fmt.Sprintf("%s\t[%d]\t%s>%s\t%s\t%s\n",
		time.Now().Format("2006-01-02 15:04:05"), pid, src, tgt, transcript, translation)
	translateFile.WriteString(line)
}

func SessionStart(server, src, tgt string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("server", server).
		Str("src", src).
		Str("tgt", tgt).
		Msg("session_start")
}

func SessionEnd(count int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("translations", count).
		Msg("session_end")
}
