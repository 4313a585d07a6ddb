// Package config loads fiber.json, the configuration of the fiber CLI.
//
// # Configuration File Structure
//
//	{
//	  "scheduler": {
//	    "budget": "5ms",
//	    "driver": "eventloop",
//	    "debug": false
//	  },
//	  "serve": {
//	    "addr": "localhost:8080",
//	    "metricsPath": "/metrics"
//	  },
//	  "export": {
//	    "bucket": "ui-snapshots",
//	    "prefix": "snapshots/",
//	    "region": "us-east-1"
//	  },
//	  "journal": {
//	    "path": "commits.db"
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.LoadOrDefault(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config
