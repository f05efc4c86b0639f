package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"telegram-game-bot/internal/domain/game"
	"telegram-game-bot/internal/domain/model"
	"telegram-game-bot/internal/domain/ports/adapter"
	"telegram-game-bot/internal/infra/logging"
)

const parseMarkdown = "Markdown"

// outbound is one message produced from a game event.
type outbound struct {
	text    string
	replyTo int
	edit    int // message id to edit in place
	poll    *adapter.QuizPollParams
}

// announce renders events and sends them in order. Delivery errors are logged
// and never roll back game state.
func (uc *gameUC) announce(ctx context.Context, g *model.Game, events []game.Event, replyTo int) {
	for _, out := range uc.render(g, events, replyTo) {
		var err error
		switch {
		case out.poll != nil:
			var pollID string
			pollID, err = uc.bot.SendQuizPoll(ctx, *out.poll)
			if err == nil {
				g.PollID = pollID
				err = uc.games.BindPoll(ctx, pollID, g.ChatID, uc.engine.Settings().QuizRound*2)
			}
		case out.edit != 0:
			err = uc.bot.EditMessage(ctx, g.ChatID, out.edit, out.text, nil)
			if err != nil {
				_, err = uc.send(ctx, g.ChatID, out.text, 0)
			}
		default:
			_, err = uc.send(ctx, g.ChatID, out.text, out.replyTo)
		}
		if err != nil {
			logging.With(ctx, uc.log).Warn().Err(err).Int64("chat_id", g.ChatID).Msg("failed to announce game event")
		}
	}
}

func (uc *gameUC) send(ctx context.Context, chatID int64, text string, replyTo int) (int, error) {
	return uc.bot.SendMessage(ctx, adapter.SendMessageParams{ChatID: chatID, Text: text, ParseMode: parseMarkdown, ReplyTo: replyTo})
}

func (uc *gameUC) render(g *model.Game, events []game.Event, replyTo int) []outbound {
	name := g.Type.DisplayName()
	out := make([]outbound, 0, len(events))
	for _, e := range events {
		switch e.Kind {
		case game.EventStarted:
			text := uc.tr.T("game_started", name, e.Players)
			if g.Type == model.GameNumberGuessing {
				text += "\n\n" + uc.tr.T("number_start")
			}
			out = append(out, outbound{text: text, edit: g.LobbyMessageID})
		case game.EventQuestion:
			out = append(out, uc.renderQuestion(g, e))
		case game.EventTurn:
			out = append(out, outbound{text: uc.tr.T("turn", e.Word, e.Next.Username, e.Letter)})
		case game.EventCorrect:
			out = append(out, outbound{text: uc.renderCorrect(g, e), replyTo: replyTo})
		case game.EventWrong:
			out = append(out, outbound{text: uc.tr.T("wrong_guess"), replyTo: replyTo})
		case game.EventEliminated:
			out = append(out, outbound{text: uc.tr.T("eliminated", e.Letter, e.Username), replyTo: replyTo})
		case game.EventTimedOut:
			out = append(out, outbound{text: uc.tr.T("timed_out", e.Username)})
		case game.EventNotYourTurn:
			out = append(out, outbound{text: uc.tr.T("not_your_turn"), replyTo: replyTo})
		case game.EventLetterRevealed:
			out = append(out, outbound{text: uc.tr.T("letter_revealed", e.Letter, e.Display), replyTo: replyTo})
		case game.EventHigher:
			out = append(out, outbound{text: uc.tr.T("number_higher"), replyTo: replyTo})
		case game.EventLower:
			out = append(out, outbound{text: uc.tr.T("number_lower"), replyTo: replyTo})
		case game.EventInvalidNumber:
			out = append(out, outbound{text: uc.tr.T("number_invalid"), replyTo: replyTo})
		case game.EventRoundExpired:
			out = append(out, outbound{text: uc.tr.T("round_expired", e.Answer)})
		case game.EventFinished:
			out = append(out, uc.renderFinished(g, e))
		}
	}
	return out
}

func (uc *gameUC) renderQuestion(g *model.Game, e game.Event) outbound {
	item := e.Item
	switch g.Type {
	case model.GameQuiz:
		if item.IsPoll() {
			return outbound{poll: &adapter.QuizPollParams{
				ChatID:        g.ChatID,
				Question:      fmt.Sprintf("%d. %s", e.Round, item.Question),
				Options:       item.Options,
				CorrectOption: item.CorrectOption,
				Explanation:   item.Explanation,
				OpenPeriod:    int(uc.engine.Settings().QuizRound.Seconds()),
			}}
		}
		return outbound{text: uc.tr.T("quiz_question", e.Round, item.Question)}
	case model.GameGuessing:
		return outbound{text: uc.tr.T("guess_question", e.Round, item.Question, e.Display)}
	default:
		return outbound{text: uc.tr.T("correction_question", e.Round, item.Question)}
	}
}

func (uc *gameUC) renderCorrect(g *model.Game, e game.Event) string {
	switch g.Type {
	case model.GameWordChain:
		return uc.tr.T("correct_wordchain", e.Word, e.Username, e.Points)
	case model.GameGuessing:
		return uc.tr.T("correct_guessing", e.Username, e.Answer, e.Points)
	case model.GameWordCorrection:
		return uc.tr.T("correct_wordcorrection", e.Username, e.Answer, e.Points)
	case model.GameNumberGuessing:
		return uc.tr.T("correct_number", e.Username, e.Answer, e.Points, e.Attempts)
	default:
		return uc.tr.T("correct_quiz", e.Username, e.Points)
	}
}

func (uc *gameUC) renderFinished(g *model.Game, e game.Event) outbound {
	switch e.Reason {
	case game.FinishNoPlayers:
		return outbound{text: uc.tr.T("lobby_cancelled"), edit: g.LobbyMessageID}
	case game.FinishNoContent:
		return outbound{text: uc.tr.T("no_content", g.Type.DisplayName())}
	}

	var b strings.Builder
	b.WriteString(uc.tr.T("finished_" + string(e.Reason)))
	if g.Type == model.GameNumberGuessing && e.Answer != "" && e.Reason != game.FinishWinner {
		b.WriteString("\n" + uc.tr.T("number_reveal", e.Answer))
	}
	if board := uc.scoreboard(g.Players); board != "" {
		b.WriteString("\n\n" + uc.tr.T("final_scores", board))
	}
	return outbound{text: b.String()}
}

func (uc *gameUC) scoreboard(players []model.Player) string {
	ps := make([]model.Player, 0, len(players))
	for _, p := range players {
		if p.Score > 0 {
			ps = append(ps, p)
		}
	}
	if len(ps) == 0 {
		return ""
	}
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Score > ps[j].Score })
	lines := make([]string, 0, len(ps))
	for _, p := range ps {
		lines = append(lines, uc.tr.T("score_line", p.Username, p.Score))
	}
	return strings.Join(lines, "\n")
}
