// Package swarm runs a group of agents that share apps.
//
// Every configured agent gets its own apps.Registry holding the shared app
// instances it is allowed to use, so loading an app for one agent does not
// change what another agent sees. Agents are stepped one at a time in
// configuration order; a round is one pass of every agent.
//
// On startup the most recently saved state of each configured agent name is
// resumed. A new agent gets a fresh id and, when it has the persona app, a
// persona created from its configuration. Apps the agent had loaded are
// remembered across restarts.
package swarm
