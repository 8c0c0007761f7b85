package templater

import (
	"errors"
	"sort"

	"github.com/jonathan/pin-pipeline/internal/fetch"
)

func sortLayers(layers []Layer) {
	sort.Slice(layers, func(i, j int) bool { return layers[i].Name < layers[j].Name })
}

func asStatus(err error, target **fetch.Error) bool {
	return err != nil && errors.As(err, target) && (*target).Kind == fetch.KindStatus
}
