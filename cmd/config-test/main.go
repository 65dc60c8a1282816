package main

import (
	"flag"
	"fmt"
	"os"
	"reflect"

	"github.com/hydrostats/hydrofreq/pkg/config"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite configuration file")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> -sqlite <config.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("Configuration Comparison Test")
	fmt.Println("===========================")

	fmt.Printf("Loading YAML configuration: %s\n", *yamlFile)
	yamlProvider := config.NewYAMLProvider(*yamlFile)
	yamlConfig, err := yamlProvider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loading SQLite configuration: %s\n", *sqliteFile)
	sqliteProvider, err := config.NewSQLiteProvider(*sqliteFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating SQLite provider: %v\n", err)
		os.Exit(1)
	}
	defer sqliteProvider.Close()

	sqliteConfig, err := sqliteProvider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading SQLite config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nComparison Results:")
	fmt.Println("==================")

	fmt.Printf("Stations - YAML: %d, SQLite: %d\n", len(yamlConfig.Stations), len(sqliteConfig.Stations))
	if len(yamlConfig.Stations) == len(sqliteConfig.Stations) {
		fmt.Println("✓ Station count matches")
		for i, yamlStation := range yamlConfig.Stations {
			sqliteStation := sqliteConfig.Stations[i]
			if compareStations(yamlStation, sqliteStation) {
				fmt.Printf("✓ Station %s matches\n", yamlStation.Code)
			} else {
				fmt.Printf("✗ Station %s differs\n", yamlStation.Code)
				printStationDiff(yamlStation, sqliteStation)
			}
		}
	} else {
		fmt.Println("✗ Station count mismatch")
	}

	fmt.Println("\nStorage Configuration:")
	compareStorage(yamlConfig.Storage, sqliteConfig.Storage)

	fmt.Printf("\nControllers - YAML: %d, SQLite: %d\n", len(yamlConfig.Controllers), len(sqliteConfig.Controllers))
	if len(yamlConfig.Controllers) == len(sqliteConfig.Controllers) {
		fmt.Println("✓ Controller count matches")
		for i, yamlController := range yamlConfig.Controllers {
			sqliteController := sqliteConfig.Controllers[i]
			if compareControllers(yamlController, sqliteController) {
				fmt.Printf("✓ Controller %s matches\n", yamlController.Type)
			} else {
				fmt.Printf("✗ Controller %s differs\n", yamlController.Type)
			}
		}
	} else {
		fmt.Println("✗ Controller count mismatch")
	}

	fmt.Println("\nAnalysis Defaults:")
	if reflect.DeepEqual(yamlConfig.Analysis, sqliteConfig.Analysis) {
		fmt.Println("✓ Analysis defaults match")
	} else {
		fmt.Println("✗ Analysis defaults differ")
		fmt.Printf("  YAML:   %+v\n", yamlConfig.Analysis)
		fmt.Printf("  SQLite: %+v\n", sqliteConfig.Analysis)
	}

	fmt.Println("\nTest completed!")
}

func compareStations(yaml, sqlite config.StationData) bool {
	tolerance := 0.000001
	return yaml.Code == sqlite.Code &&
		yaml.Name == sqlite.Name &&
		yaml.Parameter == sqlite.Parameter &&
		abs(yaml.Latitude-sqlite.Latitude) < tolerance &&
		abs(yaml.Longitude-sqlite.Longitude) < tolerance
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func printStationDiff(yaml, sqlite config.StationData) {
	if yaml.Code != sqlite.Code {
		fmt.Printf("  Code: YAML='%s', SQLite='%s'\n", yaml.Code, sqlite.Code)
	}
	if yaml.Name != sqlite.Name {
		fmt.Printf("  Name: YAML='%s', SQLite='%s'\n", yaml.Name, sqlite.Name)
	}
	if yaml.Parameter != sqlite.Parameter {
		fmt.Printf("  Parameter: YAML='%s', SQLite='%s'\n", yaml.Parameter, sqlite.Parameter)
	}
}

func compareStorage(yaml, sqlite config.StorageData) {
	if (yaml.TimescaleDB == nil) != (sqlite.TimescaleDB == nil) {
		fmt.Println("✗ TimescaleDB configuration presence mismatch")
	} else if yaml.TimescaleDB != nil && sqlite.TimescaleDB != nil {
		if reflect.DeepEqual(*yaml.TimescaleDB, *sqlite.TimescaleDB) {
			fmt.Println("✓ TimescaleDB configuration matches")
		} else {
			fmt.Println("✗ TimescaleDB configuration differs")
		}
	} else {
		fmt.Println("✓ TimescaleDB: both nil")
	}

	if (yaml.Redis == nil) != (sqlite.Redis == nil) {
		fmt.Println("✗ Redis configuration presence mismatch")
	} else if yaml.Redis != nil && sqlite.Redis != nil {
		if reflect.DeepEqual(*yaml.Redis, *sqlite.Redis) {
			fmt.Println("✓ Redis configuration matches")
		} else {
			fmt.Println("✗ Redis configuration differs")
		}
	} else {
		fmt.Println("✓ Redis: both nil")
	}
}

func compareControllers(yaml, sqlite config.ControllerData) bool {
	if yaml.Type != sqlite.Type {
		return false
	}

	if (yaml.RESTServer == nil) != (sqlite.RESTServer == nil) {
		return false
	}
	if yaml.RESTServer != nil && !reflect.DeepEqual(*yaml.RESTServer, *sqlite.RESTServer) {
		return false
	}

	if (yaml.Collector == nil) != (sqlite.Collector == nil) {
		return false
	}
	if yaml.Collector != nil && !reflect.DeepEqual(*yaml.Collector, *sqlite.Collector) {
		return false
	}

	return true
}
