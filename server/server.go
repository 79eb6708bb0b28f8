package server

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/beaconhq/beacon/server/logger"
	"github.com/beaconhq/beacon/server/models"
	"github.com/go-playground/validator"
	"github.com/gorilla/mux"
	"github.com/spf13/viper"
)

var (
	logg     = logger.NewLogger()
	validate = validator.New()
)

// Start boots the contact registry server: validates config, migrates the
// database & serves the API until SIGINT/SIGTERM.
func Start(config *viper.Viper, devMode bool) {
	serverConfig := validatedServerConfig(config)

	err := models.AutoMigrate(serverConfig.Sqlite.PassPhrase, configDirectory(devMode))
	fatalOnError(err)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%v", serverConfig.Beacon.Listener.Port),
		Handler: NewRouter(),
	}

	go serve(server)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	cleanup(server)
}

func NewRouter() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(requestContextMiddleware, loggingMiddleware)
	router.NotFoundHandler = http.HandlerFunc(notFoundHandler)
	router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowedHandler)

	router.HandleFunc("/", healthCheck).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/items/", listContacts).Methods("GET")
	api.HandleFunc("/items/", createContact).Methods("POST")
	api.HandleFunc("/items/{id:[0-9]+}/", findContact).Methods("GET")
	api.HandleFunc("/items/{id:[0-9]+}/", updateContact).Methods("PUT", "PATCH")
	api.HandleFunc("/items/{id:[0-9]+}/", deleteContact).Methods("DELETE")

	return router
}
