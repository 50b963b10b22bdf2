// Package engine contains the comfort bath simulation core.
//
// Engine is the orchestrator: it turns a frame delta into discrete sub-steps
// (temperature decay, comfort, macro seconds, zone rotation, difficulty),
// lets the Director run the interference effects, and resolves failure.
// Every operation takes a GameState by value and returns a new one.
//
// Ticker is the real-time heartbeat used by drivers such as the session server.
package engine
