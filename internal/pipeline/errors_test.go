package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/pin-pipeline/internal/pipeline/steps"
)

func TestStepError(t *testing.T) {
	cause := errors.New("HTTP status 500")
	err := stepErr(steps.BlogPublish, cause)

	assert.Equal(t, "Blog publish failed: HTTP status 500", err.Error())
	assert.ErrorIs(t, err, cause)

	again := stepErr(steps.PinterestPost, err)
	assert.Same(t, err, again)
	assert.Nil(t, stepErr(steps.Finalize, nil))
}

func TestNoCreativeError(t *testing.T) {
	assert.Equal(t, "no creative strategy produced an image", (&NoCreativeError{}).Error())

	err := &NoCreativeError{Reasons: []string{"local_template: refused", "raw_generation: quota"}}
	assert.Equal(t, "no creative strategy produced an image (local_template: refused; raw_generation: quota)", err.Error())
}
