// Package kiosk keeps the full-screen browser that renders the viewer alive.
//
// The frame's screen is a kiosk-mode browser pointed at the viewer page
// served by the API. The Supervisor launches it in its own process group,
// logs its output, restarts it with exponential backoff when it exits and
// terminates the whole group on shutdown.
//
// Example usage:
//
//	sup, err := kiosk.NewSupervisor(kiosk.Config{
//	    Command: "chromium-browser",
//	    Args:    kiosk.ExpandArgs([]string{"--kiosk", "{url}"}, "http://127.0.0.1:8080/"),
//	})
//	if err != nil {
//	    return err
//	}
//	if err := sup.Start(ctx); err != nil {
//	    return err
//	}
//	defer sup.Stop()
package kiosk
