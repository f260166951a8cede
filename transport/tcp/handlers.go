package tcp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/countnet-backend/internal/apperror"
	"github.com/rocketscienceinc/countnet-backend/internal/counting"
)

const commandList = "history, help, score, top, online, who"

var helpMessage = []string{
	"CountNet - How to Use",
	"Type the next number in the sequence to enter it and you can also use the following commands.",
	"* help - display this message",
	"* history [page #] - display past messages",
	"* score - show your score",
	"* top - show the top ten scores",
	"* online - show who's connected right now",
	"* who - show who you are",
}

type handlerFunc func(session *Session, args []string) error

func (that *Server) registerHandlers() {
	that.handlers["help"] = that.handleHelp
	that.handlers["history"] = that.handleHistory
	that.handlers["score"] = that.handleScore
	that.handlers["top"] = that.handleTop
	that.handlers["online"] = that.handleOnline
	that.handlers["who"] = that.handleWho
}

// handleLine - interprets one received line as a move or a command.
func (that *Server) handleLine(session *Session, line string) error {
	fields := strings.Fields(line)

	command := ""
	if len(fields) > 0 {
		command = fields[0]
	}

	n, err := strconv.Atoi(command)
	if err == nil {
		return that.handleMove(session, n)
	}

	if errors.Is(err, strconv.ErrRange) {
		return that.handleOutOfRange(session, command)
	}

	handler, ok := that.handlers[command]
	if !ok {
		session.Send("Invalid command. Commands: " + commandList)
		return nil
	}

	return handler(session, fields[1:])
}

func (that *Server) handleMove(session *Session, n int) error {
	counter, err := that.game.MakeMove(session.Identity, n)

	switch {
	case errors.Is(err, apperror.ErrSpokeTwice):
		session.Send("You can't speak twice in a row")
	case errors.Is(err, apperror.ErrWrongNumber):
		session.Send(fmt.Sprintf("%d is the wrong number!", n))
	case err != nil:
		return fmt.Errorf("failed to handle move: %w", err)
	default:
		that.registry.Broadcast(fmt.Sprintf("The count is now %d!", counter))
	}

	return nil
}

// handleOutOfRange - answers a number too large for int, which can never be the next one.
func (that *Server) handleOutOfRange(session *Session, token string) error {
	if _, lastMover := that.game.Last(); lastMover == session.Identity {
		session.Send("You can't speak twice in a row")
		return nil
	}

	session.Send(token + " is the wrong number!")

	return nil
}

func (that *Server) handleWelcome(session *Session) error {
	counter, lastMover := that.game.Last()

	session.Send(
		fmt.Sprintf("Welcome to CountNet, %s. The last number was %d by %s", session.Identity, counter, lastMover),
		"Enter the next number. Other commands: "+commandList,
	)

	return nil
}

func (that *Server) handleHelp(session *Session, _ []string) error {
	session.Send(helpMessage...)
	return nil
}

func (that *Server) handleHistory(session *Session, args []string) error {
	page := 0
	if len(args) > 0 {
		if parsed, err := strconv.Atoi(args[0]); err == nil && parsed > 0 {
			page = parsed
		}
	}

	report := that.game.History(page)

	lines := make([]string, 0, len(report.Entries)+2)
	lines = append(lines, fmt.Sprintf("History (page %d)", report.Page))

	for _, entry := range report.Entries {
		lines = append(lines, fmt.Sprintf("%s: %d", entry.Mover, entry.Value))
	}

	if report.IsEnd {
		lines = append(lines, "You've reached the end!")
	} else {
		lines = append(lines, fmt.Sprintf("that was page %d, use history %d to get the next page", report.Page, report.Page+1))
	}

	session.Send(lines...)

	return nil
}

func (that *Server) handleScore(session *Session, _ []string) error {
	report := that.game.Score(session.Identity)

	rank := "?"
	if report.Rank > 0 {
		rank = strconv.Itoa(report.Rank)
	}

	lines := []string{fmt.Sprintf("Your score is %d. Rank #%s", report.Score, rank)}

	start, end := counting.RankWindow(len(report.Ranking), report.Index)
	for i := start; i < end; i++ {
		player := report.Ranking[i]

		marker := "   "
		if player.ID == session.Identity {
			marker = "-> "
		}

		lines = append(lines, fmt.Sprintf("%s%d. %s: %d", marker, counting.Rank(report.Ranking, i), player.ID, player.Score))
	}

	session.Send(lines...)

	return nil
}

func (that *Server) handleTop(session *Session, _ []string) error {
	top := that.game.Top()

	lines := make([]string, 0, len(top)+1)
	lines = append(lines, "The top ten scores are")

	for i, player := range top {
		lines = append(lines, fmt.Sprintf("%2d. %s: %d", counting.Rank(top, i), player.ID, player.Score))
	}

	session.Send(lines...)

	return nil
}

func (that *Server) handleOnline(session *Session, _ []string) error {
	session.Send("Currently online:", strings.Join(that.registry.Identities(), " "))
	return nil
}

func (that *Server) handleWho(session *Session, _ []string) error {
	session.Send("You are " + session.Identity)
	return nil
}
