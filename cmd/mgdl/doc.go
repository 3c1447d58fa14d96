// Command mgdl mirrors manga from the provider site into a local library.
//
// Every command loads the configuration once through commandContext, opens
// the catalog for the duration of the command, and tags its context with a
// fresh correlation id so log lines from one invocation can be grouped.
package main
