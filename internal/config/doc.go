// Package config provides configuration parsing for the elements CLI.
//
// The configuration is stored in elements.json next to the manifest.
// This package handles loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "document": "index.html",
//	  "manifest": "s3://assets/elements.yaml",
//	  "log": {
//	    "level": "debug",
//	    "format": "json"
//	  },
//	  "inspect": {
//	    "host": "0.0.0.0",
//	    "port": 7357,
//	    "whenDefinedTimeout": "10s"
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "elements"
//	  },
//	  "s3": {
//	    "region": "eu-west-1",
//	    "endpoint": "http://localhost:9000",
//	    "usePathStyle": true
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	logger := cfg.Logger(os.Stderr)
package config
