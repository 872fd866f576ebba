package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
)

func main() {
	var host string
	var port string
	// Accept the flags passed by the spawner.
	flag.StringVar(&host, "host", "127.0.0.1", "host")
	flag.StringVar(&port, "port", "0", "port")
	exitEarly := flag.Bool("exit-early", false, "exit with status 3 before serving")
	flag.Parse()
	if *exitEarly {
		fmt.Fprintln(os.Stderr, "fake worker: no CUDA device")
		os.Exit(3)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v1/handles", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"handle": "h-" + uuid.NewString()})
	})
	mux.HandleFunc("/v1/handles/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case strings.HasSuffix(r.URL.Path, "/prompts"):
			_ = json.NewEncoder(w).Encode(map[string]string{"prompt": "p-1"})
		case strings.HasSuffix(r.URL.Path, "/synthesize"):
			// two float32 zero samples
			_ = json.NewEncoder(w).Encode(map[string]any{"sample_rate": 24000, "samples": "AAAAAAAAAAA="})
		default:
			http.NotFound(w, r)
		}
	})

	srv := &http.Server{Addr: host + ":" + port, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Wait for SIGTERM then shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	<-sigCh
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
