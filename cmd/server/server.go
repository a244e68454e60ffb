package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/axellelanca/linkquota/cmd"
	"github.com/axellelanca/linkquota/internal/app"
	"github.com/spf13/cobra"
)

// shutdownTimeout bounds the graceful stop of the HTTP server and the sweeper.
const shutdownTimeout = 10 * time.Second

// RunServerCmd représente la commande 'run-server' de Cobra.
// C'est le point d'entrée pour lancer le serveur de l'application.
var RunServerCmd = &cobra.Command{
	Use:   "run-server",
	Short: "Lance le serveur API de raccourcissement d'URLs et le sweeper d'expiration.",
	Long: `Cette commande initialise la base de données, charge les liens en mémoire,
démarre le sweeper qui supprime les liens expirés, puis lance le serveur HTTP.`,
	Run: func(cobraCmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, cmd.Cfg)
		if err != nil {
			log.Fatalf("Échec de l'initialisation de l'application : %v", err)
		}
		defer a.Close()

		if err := a.Sweeper.Start(ctx); err != nil {
			log.Fatalf("Échec du démarrage du sweeper : %v", err)
		}
		log.Printf("Sweeper d'expiration démarré avec un intervalle de %v.", a.Cfg.SweepInterval())

		srv := &http.Server{
			Addr:    a.Addr(),
			Handler: a.Router,
		}

		// Démarrer le serveur dans une goroutine pour ne pas bloquer.
		serverErr := make(chan error, 1)
		go func() {
			log.Printf("Démarrage du serveur sur %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()

		// Bloquer jusqu'à un signal d'arrêt (SIGINT, SIGTERM) ou une erreur du serveur.
		select {
		case <-ctx.Done():
			log.Println("Signal d'arrêt reçu. Arrêt du serveur...")
		case err := <-serverErr:
			log.Printf("Échec du serveur : %v", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Arrêt forcé du serveur HTTP : %v", err)
		}
		if err := a.Sweeper.Stop(shutdownCtx); err != nil {
			log.Printf("Arrêt du sweeper : %v", err)
		}

		log.Println("Serveur arrêté proprement.")
	},
}

func init() {
	cmd.RootCmd.AddCommand(RunServerCmd)
}
