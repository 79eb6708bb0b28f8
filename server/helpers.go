package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/beaconhq/beacon/shared"
	"github.com/beaconhq/beacon/utils"
	"github.com/spf13/viper"
)

// ---------------------------------------------------------------------------------//
// Handler Helper functions
// --------------------------------------------------------------------------------//

func removeUnknownFields(args map[string]interface{}, validFields map[string]bool) {
	for key := range args {
		if !validFields[key] {
			delete(args, key)
		}
	}
}

// pageLink rebuilds the request URL with the page query param swapped out.
// Returns nil for pages outside [1, pages], so boundary links are absent.
func pageLink(r *http.Request, page, pages int64) *string {
	if page < 1 || page > pages {
		return nil
	}

	u := *r.URL
	query := u.Query()
	query.Set("page", strconv.FormatInt(page, 10))
	u.RawQuery = query.Encode()

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	link := fmt.Sprintf("%v://%v%v", scheme, r.Host, u.String())
	return &link
}

// ---------------------------------------------------------------------------------//
// Server Helper functions
// --------------------------------------------------------------------------------//

func validatedServerConfig(config *viper.Viper) *shared.ServerConfig {
	serverConfig := &shared.ServerConfig{}

	fatalOnError(config.Unmarshal(serverConfig))
	fatalOnError(validate.Struct(serverConfig))

	return serverConfig
}

func serve(server *http.Server) {
	logg.Infof("Beacon server is listening on port:%v", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Fatal(err)
	}
}

func cleanup(server *http.Server) {
	// Shutdown server gracefully
	ctxShutDown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutDown); err != nil {
		logg.Fatalf("Beacon server shutdown failed:%+s", err)
	}

	logg.Infof("Beacon server stopped properly")
}

// configDirectory retrieves the directory to store beacon data
// Or logs an error message and then calls os.Exit if it's unable to.
func configDirectory(devMode bool) string {
	// Use 'beacon' folder in home directory for prod
	configFolderName := "beacon"
	rootDir, err := os.UserHomeDir()
	fatalOnError(err)

	// Use 'dev' folder in current directory for dev mode
	if devMode {
		configFolderName = "dev"
		rootDir, err = os.Getwd()
		fatalOnError(err)
	}

	configDir := filepath.Join(rootDir, configFolderName)

	err = utils.CreateDirIfNotExist(configDir)
	fatalOnError(err)

	return configDir
}

func fatalOnError(err error) {
	if err != nil {
		logg.Fatal(err)
	}
}
