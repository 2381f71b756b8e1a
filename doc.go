/*
Package ddns keeps Dynamic DNS records pointed at the public IP address of the host.

A [Daemon] is built with [New] from a list of [Profile] values,
usually parsed from command line tokens with [ParseProfiles] or from provider parameters with [ParseParam].
Each round the daemon asks its [Resolver] for the public address,
normally a [FallbackResolver] that tries a list of endpoints in order until one answers,
and hands the result to an [Updater] for every profile.

Additional daemon configuration options are listed in the docs for New.
*/
package ddns
