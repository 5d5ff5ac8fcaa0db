// messages.go contains message templates and formatting functions for Telegram.

package telegram

import (
	"errors"
	"fmt"
	"html"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/aliskhannn/gre-quiz-bot/internal/domain/entities"
	"github.com/aliskhannn/gre-quiz-bot/internal/service"
)

// Error messages.
const (
	msgInternalError    = "Something went wrong. Please try again later."
	msgUnknownCommand   = "Unknown command. Send /quizhelp to see what I can do."
	msgStartQuizUsage   = "Usage: /startquiz [rounds] [round_length] [groupname]\nExample: /startquiz 5 10 animals"
	msgQuizInProgress   = "⏳ A quiz is already running in this chat. Wait for it to finish."
	msgCountdownStopped = "⚠️ The countdown stopped updating. Answers are still accepted until the time runs out."
	msgRatingsNotSaved  = "⚠️ Ratings could not be saved for this quiz."
	msgNoScores         = "No one scored any points! 😅"
	msgNoRatings        = "No ratings yet! 😅"
	msgNoAnswers        = "😢 No one answered!"
	msgWelcome          = "👋 Hi! I run vocabulary quizzes in group chats.\n\nSend /quizhelp to see the commands."
)

// Callback answers shown to the user who pressed a button.
const (
	toastAlreadyAnswered = "❌ You already answered!"
	toastRoundOver       = "⌛ This round is over."
	toastUnknownOption   = "Unknown option."
)

const msgHelp = `📖 <b>GRE Quiz Bot Help</b>

<b>/startquiz [rounds] [round_length] [groupname]</b>
Start a button-based word quiz.
• rounds: number of questions (default %d)
• round_length: seconds per round (default %d)
• groupname: quiz only from this word group (see /listgroups)

<b>/leaderboard</b>
Show top %d players and their Elo ratings.

<b>/listgroups</b>
Show all available word groups.

<b>/quizhelp</b>
Show this help message.

Have fun quizzing! 🎓`

var titleCaser = cases.Title(language.English)

func esc(s string) string {
	return html.EscapeString(s)
}

func title(s string) string {
	return titleCaser.String(s)
}

func formatRating(r float64) string {
	return fmt.Sprintf("%d", int64(math.Round(r)))
}

func formatAnnouncement(a entities.Announcement) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎮 Starting a quiz with %d rounds, %ds per round!", a.Rounds, a.RoundLength)

	switch {
	case a.Group != "":
		fmt.Fprintf(&sb, " Using group '%s' only for question words.", esc(title(a.Group)))
	case a.FallbackFromAll:
		sb.WriteString(" No fallback word list found, using words from all groups.")
	default:
		sb.WriteString(" Using the fallback word list.")
	}

	return sb.String()
}

func formatQuestion(v entities.QuestionView) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Round %d/%d</b>\n\n", v.Round, v.TotalRounds)
	fmt.Fprintf(&sb, "📖 <b>%s</b>\n\n", esc(strings.ToUpper(v.Word)))

	for i, opt := range v.Options {
		fmt.Fprintf(&sb, "%s - %s\n", entities.OptionLabel(i), esc(opt))
	}

	fmt.Fprintf(&sb, "\n⏳ <b>Time left: %ds</b> ⏳", v.SecondsRemaining)
	return sb.String()
}

func formatRoundResult(r entities.RoundResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Round %d results</b>\n", r.Round)
	fmt.Fprintf(&sb, "📖 %s\n", esc(strings.ToUpper(r.Word)))
	fmt.Fprintf(&sb, "Correct answer: ✅ %s\n\n", esc(r.CorrectAnswer))

	if len(r.Choices) == 0 {
		sb.WriteString(msgNoAnswers)
		return sb.String()
	}

	for _, c := range r.Choices {
		fmt.Fprintf(&sb, "• <b>%s</b>: chose %s | +%d points\n",
			esc(c.User.DisplayName()), esc(c.Answer), c.Points)
	}

	return strings.TrimRight(sb.String(), "\n")
}

func formatFinalScores(ranked []entities.PlayerScore) string {
	if len(ranked) == 0 {
		return msgNoScores
	}

	var sb strings.Builder
	sb.WriteString("🏆 <b>Final Scores</b> 🏆\n")
	for i, ps := range ranked {
		fmt.Fprintf(&sb, "\n%d. <b>%s</b>: %d points", i+1, esc(ps.User.DisplayName()), ps.Score)
	}

	return sb.String()
}

func formatRatings(ratings []entities.PlayerRating) string {
	var sb strings.Builder
	sb.WriteString("📊 <b>Updated Ratings</b> 📊\n")
	for _, pr := range ratings {
		fmt.Fprintf(&sb, "\n<b>%s</b>: %s", esc(pr.User.DisplayName()), formatRating(pr.Rating))
	}

	return sb.String()
}

func formatLeaderboard(ratings []entities.PlayerRating) string {
	if len(ratings) == 0 {
		return msgNoRatings
	}

	var sb strings.Builder
	sb.WriteString("🏅 <b>Leaderboard</b>\n")
	for i, pr := range ratings {
		fmt.Fprintf(&sb, "\n%d. <b>%s</b>: %s", i+1, esc(pr.User.DisplayName()), formatRating(pr.Rating))
	}

	return sb.String()
}

func formatGroups(names []string) string {
	var sb strings.Builder
	sb.WriteString("<b>Available Word Groups</b>\n")
	for _, n := range names {
		fmt.Fprintf(&sb, "\n• %s", esc(title(n)))
	}

	return sb.String()
}

// maxToastRunes is the Telegram limit for callback answer texts.
const maxToastRunes = 200

func formatChoiceToast(choice string) string {
	text := []rune("✅ You chose: " + choice)
	if len(text) > maxToastRunes {
		text = append(text[:maxToastRunes-1], '…')
	}
	return string(text)
}

// formatError turns an error reported by a quiz session into chat text.
func formatError(err error) string {
	var gnf *service.GroupNotFoundError
	switch {
	case errors.As(err, &gnf):
		return fmt.Sprintf("❌ Group <code>%s</code> not found! Valid groups: %s",
			esc(gnf.Name), esc(strings.Join(gnf.Valid, ", ")))
	case errors.Is(err, service.ErrInvalidParams):
		return "❌ " + esc(err.Error()) + "\n\n" + esc(msgStartQuizUsage)
	case errors.Is(err, service.ErrQuizInProgress):
		return msgQuizInProgress
	case errors.Is(err, service.ErrCountdownFailed):
		return msgCountdownStopped
	case errors.Is(err, service.ErrRatingsNotSaved):
		return msgRatingsNotSaved
	default:
		return msgInternalError
	}
}
