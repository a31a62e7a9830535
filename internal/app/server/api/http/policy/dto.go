package policy

import (
	"syncmesh/internal/domain/sync"
)

type listInput struct{}

type listOutput struct {
	Body []*sync.Policy
}
