// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// # Port Interfaces
//
//   - [FrameStore]: durable FIFO of frames
//   - [FrameSource]: produces one frame per call from the network
//   - [Network]: brings connectivity up and down around a replenish
//   - [VoltageSensor]: supply voltage telemetry sent with each fetch
//   - [DisplaySink]: renders frames and transient status text
//   - [DigitalInput]: manual reset and selector inputs
//   - [PartitionTable], [BootControl]: boot selection platform API
//   - [PowerManager]: wake reason and low-power suspend
//   - [StatusRepository]: persists the last cycle summary
//   - [Logger]: structured logging abstraction
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them against the
// file system, HTTP, periph.io and Linux sysfs.
package ports
