// Package device provides the object registry for OmniBridge.
//
// The registry is the persistent catalogue of objects discovered on the
// connected controllers: security areas, sensor zones and controllable
// units. Sessions repopulate it after every enumeration and push state
// into it as notifications arrive, so the catalogue survives restarts
// and can answer queries without touching a controller.
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────────────────┐
//	│                           Object Registry                                │
//	│                                                                          │
//	│  ┌──────────────────┐    ┌──────────────────┐    ┌──────────────────┐   │
//	│  │     Registry     │    │    Repository    │    │    Validation    │   │
//	│  │   (registry.go)  │───▶│  (repository.go) │    │ (validation.go)  │   │
//	│  │                  │    │                  │    │                  │   │
//	│  │ • Sync/query ops │    │ • SQLite queries │    │ • Kind checks    │   │
//	│  │ • In-memory cache│    │ • JSON marshal   │    │ • Number range   │   │
//	│  │ • Thread safety  │    │ • Stale cleanup  │    │ • Name limits    │   │
//	│  └──────────────────┘    └──────────────────┘    └──────────────────┘   │
//	│           │                       │                                      │
//	└───────────│───────────────────────│──────────────────────────────────────┘
//	            │                       │
//	            ▼                       ▼
//	┌──────────────────────┐   ┌──────────────────────┐
//	│   Controller bridge  │   │   SQLite Database    │
//	│  • enumeration sync  │   │   (devices table)    │
//	│  • state updates     │   └──────────────────────┘
//	└──────────────────────┘
//
// # Usage
//
//	// Create repository and registry
//	repo := device.NewSQLiteRepository(db)
//	registry := device.NewRegistry(repo)
//	registry.SetLogger(log)
//
//	// Load the catalogue into cache on startup
//	if err := registry.RefreshCache(ctx); err != nil {
//	    return err
//	}
//
//	// Replace a controller's unit catalogue after enumeration
//	units := []device.Device{
//	    {Number: 1, Name: "Porch Light", TypeName: "Standard", Dimmable: true},
//	    {Number: 2, Name: "Pump Flag", TypeName: "Flag"},
//	}
//	if err := registry.SyncController(ctx, "192.168.1.50:4369", device.KindUnit, units); err != nil {
//	    return err
//	}
//
//	// Update state (from the bridge's event stream)
//	id := device.ObjectID("192.168.1.50:4369", device.KindUnit, 1)
//	registry.SetDeviceState(ctx, id, device.State{"on": true, "level": 75})
//
// # Thread Safety
//
// The Registry is safe for concurrent use. All operations are protected by
// a read-write mutex. The Repository implementation must also be thread-safe.
package device
