// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package quiz_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/pdiddy/science-digest/internal/quiz"
)

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "quiz",
		ScenarioInitializer: initializeScenario,
		Options: &godog.Options{
			Format:   "progress",
			Paths:    []string{"testdata/features"},
			Output:   io.Discard,
			TestingT: t,
			Strict:   true,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("quiz features failed")
	}
}

// scenarioState carries values between the steps of one scenario.
type scenarioState struct {
	raw     string
	ext     quiz.Extraction
	outcome quiz.Outcome
}

func initializeScenario(ctx *godog.ScenarioContext) {
	s := &scenarioState{}

	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		*s = scenarioState{}
		return ctx, nil
	})

	ctx.Step(`^the generated text:$`, s.theGeneratedText)
	ctx.Step(`^I extract the quiz$`, s.iExtractTheQuiz)
	ctx.Step(`^a quiz is found$`, s.aQuizIsFound)
	ctx.Step(`^no quiz is found$`, s.noQuizIsFound)
	ctx.Step(`^the trimmed article is "([^"]*)"$`, s.theTrimmedArticleIs)
	ctx.Step(`^the article is the whole text$`, s.theArticleIsTheWholeText)
	ctx.Step(`^the quiz validates with question "([^"]*)" and answer "([^"]*)"$`, s.theQuizValidates)
	ctx.Step(`^validation fails with a malformed quiz showing "([^"]*)"$`, s.validationFails)
	ctx.Step(`^I grade "([^"]*)" against answer "([^"]*)"$`, s.iGrade)
	ctx.Step(`^the outcome is "([^"]*)"$`, s.theOutcomeIs)
}

func (s *scenarioState) theGeneratedText(doc *godog.DocString) error {
	s.raw = doc.Content
	return nil
}

func (s *scenarioState) iExtractTheQuiz() error {
	s.ext = quiz.Extract(s.raw)
	return nil
}

func (s *scenarioState) aQuizIsFound() error {
	if !s.ext.Found {
		return errors.New("expected a quiz block, found none")
	}
	return nil
}

func (s *scenarioState) noQuizIsFound() error {
	if s.ext.Found {
		return fmt.Errorf("expected no quiz, got %q", s.ext.Quiz)
	}
	return nil
}

func (s *scenarioState) theTrimmedArticleIs(want string) error {
	if got := strings.TrimSpace(s.ext.Article); got != want {
		return fmt.Errorf("article = %q, want %q", got, want)
	}
	return nil
}

func (s *scenarioState) theArticleIsTheWholeText() error {
	if s.ext.Article != s.raw {
		return fmt.Errorf("article = %q, want the whole input %q", s.ext.Article, s.raw)
	}
	return nil
}

func (s *scenarioState) theQuizValidates(question, answer string) error {
	p, err := quiz.Validate(s.ext.Quiz)
	if err != nil {
		return err
	}
	if p.Question != question || p.CorrectAnswer != answer {
		return fmt.Errorf("got question %q answer %q", p.Question, p.CorrectAnswer)
	}
	return nil
}

func (s *scenarioState) validationFails(text string) error {
	_, err := quiz.Validate(s.ext.Quiz)
	var mqe *quiz.MalformedQuizError
	if !errors.As(err, &mqe) {
		return fmt.Errorf("expected *MalformedQuizError, got %v", err)
	}
	if mqe.Text != text {
		return fmt.Errorf("diagnostic text = %q, want %q", mqe.Text, text)
	}
	return nil
}

func (s *scenarioState) iGrade(option, letter string) error {
	s.outcome = quiz.Grade(option, letter)
	return nil
}

func (s *scenarioState) theOutcomeIs(want string) error {
	if string(s.outcome) != want {
		return fmt.Errorf("outcome = %q, want %q", s.outcome, want)
	}
	return nil
}
