package cerr

import (
	"fmt"
	"sort"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
)

// F is a set of contextual fields attached to an error.
type F map[string]any

// CtxErr accumulates fields before the error is finalized with
// Wrap/Error. The zero value is usable.
type CtxErr struct {
	fields F
	err    error
}

func Field(key string, value any) CtxErr {
	return CtxErr{}.Field(key, value)
}

func Fields(fields F) CtxErr {
	ctx := CtxErr{}
	for key, value := range fields {
		ctx = ctx.Field(key, value)
	}

	return ctx
}

func Wrap(err error) CtxErr {
	return CtxErr{}.Wrap(err)
}

func Error(msg string) error {
	return CtxErr{}.Error(msg)
}

// Log reports err at error level with its full annotation chain.
func Log(err error) {
	log.Error(fmt.Sprintf("%+v", err))
}

func (c CtxErr) Field(key string, value any) CtxErr {
	newFields := F{}
	for k, v := range c.fields {
		newFields[k] = v
	}

	newFields[key] = value

	return CtxErr{
		fields: newFields,
		err:    c.err,
	}
}

func (c CtxErr) Wrap(err error) CtxErr {
	return CtxErr{
		fields: c.fields,
		err:    err,
	}
}

func (c CtxErr) Error(msg string) error {
	var err error
	if c.err != nil {
		err = errors.Wrap(c.err, msg)
	} else {
		err = errors.New(msg)
	}

	for _, key := range c.sortedFieldKeys() {
		err = errors.WithDetailf(err, "%s: %v", key, c.fields[key])
	}

	return err
}

func (c CtxErr) sortedFieldKeys() []string {
	keys := make([]string, 0, len(c.fields))
	for key := range c.fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)
	return keys
}
