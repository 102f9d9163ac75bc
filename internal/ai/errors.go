package ai

import "github.com/vakeelhq/vakeel/internal/pkg/errs"

var ErrUnavailable = errs.ErrUnavailable
