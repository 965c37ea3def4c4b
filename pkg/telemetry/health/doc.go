// Package health serves liveness, readiness and version endpoints next to
// the metrics endpoint of the run command.
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("rules", manager.Ready)
//	health.Register(mux, checker, health.BuildInfo())
//
// Readiness checks run concurrently, each bounded by the checker timeout.
package health
