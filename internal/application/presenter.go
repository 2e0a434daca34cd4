package application

import "visionary/internal/domain"

type Presenter interface {
	Render(snapshot domain.Snapshot)
	Preview(frame []byte)
}

type NoopPresenter struct{}

func (n *NoopPresenter) Render(_ domain.Snapshot) {}

func (n *NoopPresenter) Preview(_ []byte) {}
