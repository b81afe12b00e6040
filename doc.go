// FILE: lixenwraith/tvconfig/doc.go

// Package tvconfig loads, validates and rewrites the server settings file of a
// TV streaming server (config.yaml).
//
// Features:
//   - Structured parse of the settings file (YAML flow document, TOML or JSON)
//   - Schema validation with constraint tags plus live environment probes
//     (tuner backend reachability, encoder capability, listening port conflicts)
//   - Container-aware path rewriting for deployments with a bind-mounted host rootfs
//   - Once-per-process loading with a guarded accessor
//   - Comment and formatting preserving rewrite of edited values
//
// Quick Start:
//
//	loader := tvconfig.NewLoader().
//	    WithPath("/opt/tv/config.yaml").
//	    WithLogger(logger)
//
//	settings := tvconfig.MustLoad(ctx, loader, false)
//	fmt.Println(settings.Server.Port)
//
//	// later, anywhere in the process
//	port := tvconfig.Current().Server.Port
//
// Editing:
//
//	updated, err := tvconfig.Current().Set("general.debug", true)
//	if err != nil {
//	    return err
//	}
//	if err := loader.Save(updated); err != nil {
//	    return err
//	}
//	// restart the process for the change to take effect
//
// Saving never mutates the loaded settings. Only value tokens of recognized
// lines are replaced; comments, blank lines and ordering stay untouched.
//
// Bootstrap:
// A supervisor that must learn the listen port before validation is safe to
// run uses FastReadPortOnly, which never fails and falls back to DefaultPort.
package tvconfig
