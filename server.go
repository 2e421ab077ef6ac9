// Copyright 2018 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sunmery/tiktok-ecommerce-storefront/config"
	"github.com/sunmery/tiktok-ecommerce-storefront/storage"
	"github.com/sunmery/tiktok-ecommerce-storefront/syncer"
)

type frontendServer struct {
	cfg      config.Config
	log      *logrus.Logger
	storage  storage.Storage
	sessions *sessions

	// transport is the round tripper backend calls go through; nil means
	// http.DefaultTransport.
	transport http.RoundTripper
}

func newFrontendServer(cfg config.Config, log *logrus.Logger, st storage.Storage, transport http.RoundTripper) *frontendServer {
	fe := &frontendServer{cfg: cfg, log: log, storage: st, transport: transport}
	fe.sessions = newSessions(cfg.SessionTTL, cfg.MaxSessions, func(ctx context.Context, id string) (*syncer.Syncer, error) {
		return newSyncer(ctx, cfg, st, "session/"+id+"/", fe.transport, log.WithField("session", id))
	})
	return fe
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the storefront JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log := opts.cfg, opts.log
			if err := cfg.Require(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cfg.EnableTracing {
				log.Info("Tracing enabled.")
				tp, err := initTracing(ctx, log, cfg.OTLPEndpoint)
				if err != nil {
					return err
				}
				defer func() {
					sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = tp.Shutdown(sctx)
				}()
			} else {
				log.Info("Tracing disabled.")
			}
			if cfg.EnableProfiler {
				log.Info("Profiling enabled.")
				go initProfiling(ctx, log, serviceName, serviceVersion)
			} else {
				log.Info("Profiling disabled.")
			}

			st, closeStorage, err := storage.Open(ctx, cfg.StorageOptions())
			if err != nil {
				return errors.Wrap(err, "could not open storage")
			}
			defer func() {
				if err := closeStorage(); err != nil {
					log.WithField("error", err).Warn("could not close storage")
				}
			}()

			fe := newFrontendServer(cfg, log, st, nil)
			srv := &http.Server{
				Addr:              cfg.ListenAddr + ":" + cfg.Port,
				Handler:           fe.handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errc := make(chan error, 1)
			go func() {
				log.Infof("starting server on %s:%s", cfg.ListenAddr, cfg.Port)
				errc <- srv.ListenAndServe()
			}()
			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
				log.Info("shutting down")
				sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(sctx)
			}
		},
	}
}

func (fe *frontendServer) handler() http.Handler {
	baseUrl := fe.cfg.BaseURL
	r := mux.NewRouter()
	r.HandleFunc(baseUrl+"/products", fe.productsHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(baseUrl+"/product/{id}", fe.productHandler).Methods(http.MethodGet, http.MethodHead)

	r.HandleFunc(baseUrl+"/cart", fe.viewCartHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(baseUrl+"/cart", fe.addToCartHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/cart/update", fe.updateCartItemHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/cart/remove", fe.removeCartItemHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/cart/select", fe.selectCartItemHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/cart/empty", fe.emptyCartHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/cart/sync", fe.syncCartHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/cart/checkout", fe.placeOrderHandler).Methods(http.MethodPost)

	r.HandleFunc(baseUrl+"/login", fe.loginHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/register", fe.registerHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/logout", fe.logoutHandler).Methods(http.MethodPost, http.MethodGet)
	r.HandleFunc(baseUrl+"/profile", fe.profileHandler).Methods(http.MethodGet, http.MethodHead)

	r.HandleFunc(baseUrl+"/addresses", fe.addressesHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(baseUrl+"/addresses", fe.saveAddressHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/addresses/{id:[0-9]+}", fe.deleteAddressHandler).Methods(http.MethodDelete)
	r.HandleFunc(baseUrl+"/credit-cards", fe.creditCardsHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(baseUrl+"/credit-cards", fe.saveCreditCardHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/credit-cards/{id:[0-9]+}", fe.deleteCreditCardHandler).Methods(http.MethodDelete)
	r.HandleFunc(baseUrl+"/balance", fe.balanceHandler).Methods(http.MethodGet, http.MethodHead)

	r.HandleFunc(baseUrl+"/orders", fe.orderHistoryHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(baseUrl+"/orders/{id}", fe.orderHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(baseUrl+"/orders/{id}/{action:receive|cancel|ship}", fe.orderActionHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/orders/{id}/tracking", fe.trackingHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(baseUrl+"/orders/{id}/tracking/stream", fe.trackingStreamHandler).Methods(http.MethodGet)

	r.HandleFunc(baseUrl+"/alerts", fe.alertsHandler).Methods(http.MethodGet)
	r.HandleFunc(baseUrl+"/robots.txt", func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, "User-agent: *\nDisallow: /") })
	r.HandleFunc(baseUrl+"/_healthz", func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, "ok") })

	var handler http.Handler = r
	handler = &logHandler{log: fe.log, next: handler} // add logging
	handler = ensureSessionID(handler)                // add session ID
	handler = otelhttp.NewHandler(handler, serviceName)
	return handler
}
