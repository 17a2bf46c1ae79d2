// Package chat mirrors match announcements into a Twitch channel.
//
// The mirror joins TWITCH_CHANNEL as TWITCH_BOT_USERNAME over IRC and says a
// one-line summary for every match the watcher delivered to Discord. It is
// best effort: while disconnected, announcements are dropped with an error
// and the watcher carries on.
//
// Credentials: the IRC client needs an OAuth token with the chat:edit scope.
package chat
