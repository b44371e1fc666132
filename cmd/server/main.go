// Server daemon for the empire progression API.
package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/castevet/empire-core/internal/loader"
	"github.com/castevet/empire-core/internal/server"
	"github.com/castevet/empire-core/internal/store"
	"github.com/castevet/empire-core/internal/tuning"
)

type config struct {
	Addr       string `env:"EMPIRE_ADDR" envDefault:":8080"`
	DataDir    string `env:"EMPIRE_DATA_DIR" envDefault:"data"`
	DBPath     string `env:"EMPIRE_DB_PATH" envDefault:"empire.db"`
	TuningPath string `env:"EMPIRE_TUNING_PATH"`
	LogDir     string `env:"EMPIRE_LOG_DIR"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("parse env: %v", err)
	}

	infoLog, errorLog, closeLogs, err := makeLoggers(cfg.LogDir)
	if err != nil {
		log.Fatalf("open logs: %v", err)
	}
	defer closeLogs()

	catalog, err := loader.Load(cfg.DataDir)
	if err != nil {
		errorLog.Fatalf("load catalog: %v", err)
	}

	tun := tuning.Default()
	if cfg.TuningPath != "" {
		tun, err = tuning.Load(cfg.TuningPath)
		if err != nil {
			errorLog.Fatalf("load tuning: %v", err)
		}
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		errorLog.Fatalf("open store: %v", err)
	}
	defer st.Close()

	srv := server.New(catalog, st, tun, infoLog, errorLog)

	httpSrv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	infoLog.Printf("listening on %s (data %s, db %s)", cfg.Addr, cfg.DataDir, cfg.DBPath)
	if err := httpSrv.ListenAndServe(); err != nil {
		errorLog.Fatalf("serve: %v", err)
	}
}

// makeLoggers builds the info/error logger pair. With a log directory
// set, output goes to both the files and the standard streams.
func makeLoggers(logDir string) (*log.Logger, *log.Logger, func(), error) {
	infoOut := io.Writer(os.Stdout)
	errorOut := io.Writer(os.Stderr)
	closeLogs := func() {}
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		infoFile, err := os.OpenFile(filepath.Join(logDir, "info.log"),
			os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, nil, err
		}
		errorFile, err := os.OpenFile(filepath.Join(logDir, "error.log"),
			os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			infoFile.Close()
			return nil, nil, nil, err
		}
		infoOut = io.MultiWriter(os.Stdout, infoFile)
		errorOut = io.MultiWriter(os.Stderr, errorFile)
		closeLogs = func() {
			infoFile.Close()
			errorFile.Close()
		}
	}
	infoLog := log.New(infoOut, "INFO\t", log.Ldate|log.Ltime)
	errorLog := log.New(errorOut, "ERROR\t", log.Ldate|log.Ltime|log.Lshortfile)
	return infoLog, errorLog, closeLogs, nil
}
