package bot

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/apply-pilot/internal/form"
	"github.com/spigell/apply-pilot/internal/session"
)

type executor func(ctx context.Context, s session.Session, h session.Handle, in form.Instruction) error

var executors = map[form.Action]executor{
	form.ActionSetValue: func(ctx context.Context, s session.Session, h session.Handle, in form.Instruction) error {
		return s.SetValue(ctx, h, in.Value)
	},
	form.ActionSelect: func(ctx context.Context, s session.Session, h session.Handle, in form.Instruction) error {
		return s.SelectOptions(ctx, h, in.Values)
	},
	form.ActionClick: func(ctx context.Context, s session.Session, h session.Handle, _ form.Instruction) error {
		return s.Click(ctx, h)
	},
	form.ActionUpload: func(ctx context.Context, s session.Session, h session.Handle, in form.Instruction) error {
		return s.UploadFile(ctx, h, in.Value)
	},
}

// fill executes the plan. A failure on a required field aborts the
// application; optional fields are best effort.
func (b *Bot) fill(ctx context.Context, log *zap.Logger, s session.Session, steps []form.Instruction) error {
	for _, step := range steps {
		err := execute(ctx, s, step)
		if err == nil {
			continue
		}
		if step.Field.Required {
			if errors.Is(err, session.ErrElementNotFound) {
				return fmt.Errorf("%w: %s: %v", ErrRequiredFieldUnfilled, step.Field.Identifier, err)
			}
			return fmt.Errorf("fill %s: %w", step.Field.Identifier, err)
		}
		log.Debug("skipping optional field",
			zap.String("field", step.Field.Identifier),
			zap.String("purpose", step.Field.Purpose),
			zap.Error(err),
		)
	}
	return nil
}

func execute(ctx context.Context, s session.Session, step form.Instruction) error {
	run, ok := executors[step.Action]
	if !ok {
		return fmt.Errorf("unsupported fill action %q", step.Action)
	}

	h, err := s.FindElement(ctx, step.Selector())
	if err != nil {
		return err
	}
	return run(ctx, s, h, step)
}
