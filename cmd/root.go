/*
Copyright © 2026 The beacon authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"

	"github.com/beaconhq/beacon/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	config   *viper.Viper
	isDevEnv bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use: "beacon",
	Short: `beacon is a registry for emergency contacts.

It stores who to reach in an emergency, how they'd like to be notified,
and which event types they are subscribed to - exposed over a JSON HTTP API.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.Version = fmt.Sprintf("v%s", version.Version)
	rootCmd.PersistentFlags().BoolVarP(&isDevEnv, "dev", "", false, "run in development mode")
}
