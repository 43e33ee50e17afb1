package bot

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/memohai/cinebot/internal/catalog"
)

const (
	textWelcome           = "🎬 Send me the name of a movie!"
	textAdminOnly         = "❌ This command is for admins only."
	textNotFound          = "❌ Movie not found!"
	textCatalogEmpty      = "The catalog is empty or could not be loaded. Please try again later."
	textDidYouMean        = "⚠️ Did you mean one of these?"
	textPosterFailed      = "⚠️ Could not send the poster."
	textVariantMissing    = "⚠️ No file for this resolution."
	textDeliveryFailed    = "⚠️ Could not send the file."
	textSentPrivately     = "✅ The file was sent to you in a private message."
	textJoinPrompt        = "🔒 Join our community to download files, then press Retry."
	textHandoff           = "📩 I can't message you yet. Open the bot and press Start, and your file will be sent there."
	textAddMovieStart     = "Send the poster and 3 movie files (480p, 720p, 1080p)."
	textAddMovieFirst     = "❗ Send /addmovie first."
	textPosterReceived    = "🖼️ Poster received."
	textUploadFull        = "❗ Three movie files were already received."
	textSaveFailed        = "❌ Could not save to the database."
	textNoTitle           = "❌ Could not guess a title from the file name. Nothing was saved."
	textCancelled         = "🗑️ Upload cancelled."
	textNothingToCancel   = "Nothing to cancel."
	textEditUsage         = "⚠️ Usage: <code>/edittitle old title | new title</code>"
	textRenameNotFound    = "❌ That movie was not found. Give the exact old title."
	textRenameFailed      = "❌ Could not update the title."
	textDeleteUsage       = "⚠️ Usage: <code>/deletemovie movie name</code>"
	textDeleteNotFound    = "❌ That movie was not found. Give the exact title."
	textDeleteFailed      = "❌ Could not delete from the database."
	textEmptyPage         = "❌ No movies on this page."
	textListFailed        = "❌ Could not load the movie list."
	textStatusFailed      = "❌ Could not load status info."
	textAddAdminUsage     = "⚠️ Usage: /addadmin &lt;user_id&gt;"
	textRemoveAdminUsage  = "⚠️ Usage: /removeadmin &lt;user_id&gt;"
	textInvalidUserID     = "⚠️ Invalid user ID. Please give a number."
	textAlreadyAdmin      = "⚠️ This user is already an admin."
	textNotAdmin          = "❌ User is not in the admin list."
	textLastAdmin         = "⚠️ At least one admin must remain."
	textRestarting        = "♻️ Restarting the bot..."
	textNoUpdatesChannel  = "❌ No updates channel is configured."
	textBroadcastExpired  = "⌛ Broadcast mode ended after inactivity."
	textNotBroadcasting   = "Broadcast mode is not active."
	textBroadcastFailed   = "⚠️ Could not post this message to the channel."
	textBroadcastActive   = "❗ Send /done to leave broadcast mode first."
	textUploadActive      = "❗ Finish the current upload or send /cancel first."
	textUnknownCallback   = "This button has expired."
	movieListPrevLabel    = "⬅️ Previous"
	movieListNextLabel    = "Next ➡️"
	handoffOpenLabel      = "▶️ Open bot"
	retryLabel            = "🔁 Retry"
	joinLabel             = "➕ Join"
	updatesChannelLabel   = "Movie Updates 🔔"
	fileLifetimeTemplate  = "⚠️ This file will be deleted in %s. Forward it to your Saved Messages to keep it."
	uploadAckTemplate     = "🎥 Movie file %d received.\n📂 <code>%s</code>"
	savedTemplate         = "✅ Movie saved as <b>%s</b>."
	duplicateTemplate     = "⚠️ <b>%s</b> is already in the catalog."
	renamedTemplate       = "✅ <b>%s</b> is now titled <b>%s</b>."
	deletedTemplate       = "✅ Deleted <b>%s</b>."
	addedAdminTemplate    = "✅ New admin added: %d"
	removedAdminTemplate  = "✅ Admin removed: %d"
	broadcastOnTemplate   = "📣 Broadcast mode on. Every message you send is posted to the updates channel. Send /done to finish; it ends by itself after %s of inactivity."
	broadcastOffTemplate  = "✅ Broadcast mode off. %d message(s) posted."
	movieListHeaderFormat = "🎬 Movies List - page %d/%d\n\n"
)

const movieListPageSize = 30

func escapeTitle(key string) string {
	return html.EscapeString(catalog.DisplayTitle(key))
}

func updatesLine(updatesURL string) string {
	if updatesURL == "" {
		return ""
	}
	return fmt.Sprintf("\n\n👉 <a href=\"%s\">%s</a> - new movies and updates. Join us!", html.EscapeString(updatesURL), updatesChannelLabel)
}

// posterCaption lists the deep links that fit next to the title.
func posterCaption(entry catalog.Entry, links map[catalog.Variant]string, updatesURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎬 <b>%s</b>", escapeTitle(entry.Key))
	var parts []string
	for _, v := range catalog.Variants {
		if link, ok := links[v]; ok {
			parts = append(parts, fmt.Sprintf("<a href=\"%s\">%s</a>", html.EscapeString(link), v))
		}
	}
	if len(parts) > 0 {
		b.WriteString("\n\n📥 ")
		b.WriteString(strings.Join(parts, " | "))
	}
	b.WriteString(updatesLine(updatesURL))
	return b.String()
}

func fileCaption(entry catalog.Entry, lifetime time.Duration, updatesURL string) string {
	return fmt.Sprintf("🎬 <b>%s</b>%s\n\n"+fileLifetimeTemplate, escapeTitle(entry.Key), updatesLine(updatesURL), humanDuration(lifetime))
}

func movieListText(titles []string, page, pages int) string {
	var b strings.Builder
	fmt.Fprintf(&b, movieListHeaderFormat, page, pages)
	offset := (page - 1) * movieListPageSize
	for i, title := range titles {
		fmt.Fprintf(&b, "%d. %s\n", offset+i+1, escapeTitle(title))
	}
	return b.String()
}

func statusText(st statusInfo) string {
	last := "None"
	ago := "N/A"
	if st.LastTitle != "" {
		last = escapeTitle(st.LastTitle)
		ago = timeAgo(st.Now, st.LastUpload)
	}
	loaded := "never"
	if !st.LoadedAt.IsZero() {
		loaded = timeAgo(st.Now, st.LoadedAt)
	}
	return fmt.Sprintf("📊 Bot Status:\n• Total Movies: %d\n• Cached Titles: %d (generation %d, loaded %s)\n• Last Upload: \"%s\" – %s",
		st.Total, st.Cached, st.Generation, loaded, last, ago)
}

func adminPanelText(ids []int64) string {
	var b strings.Builder
	b.WriteString("🛠️ <b>Admin Panel</b>\n\n📋 <b>Admin IDs:</b>\n")
	for _, id := range ids {
		fmt.Fprintf(&b, "• <code>%d</code>\n", id)
	}
	return b.String()
}

// timeAgo renders the coarsest whole unit between then and now.
func timeAgo(now, then time.Time) string {
	d := now.Sub(then)
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%d seconds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	}
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d.Hours()))
	case d >= time.Minute && d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	default:
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
}
