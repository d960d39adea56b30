package interaction

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-mesh-scene/pkg/core"
	"github.com/df07/go-mesh-scene/pkg/geometry"
	"github.com/df07/go-mesh-scene/pkg/host"
	"github.com/df07/go-mesh-scene/pkg/material"
	"github.com/df07/go-mesh-scene/pkg/scene"
)

func newScene(t *testing.T) *scene.Registry {
	t.Helper()
	reg := scene.NewRegistry(host.NewMemory(), material.NewLibrary(nil, nil, nil),
		scene.WithLogger(slog.New(slog.DiscardHandler)))
	t.Cleanup(reg.Close)
	return reg
}

func addBox(reg *scene.Registry, center core.Vec3) *scene.Object {
	obj := reg.Create()
	obj.SetGeometry(geometry.NewBoxMesh(core.NewVec3(1, 1, 1), false))
	obj.SetPlacement(core.NewTransform(center, core.Vec3{}, core.NewVec3(1, 1, 1)))
	return obj
}

func TestTransformInteraction_FollowsSelection(t *testing.T) {
	reg := newScene(t)
	a := addBox(reg, core.Vec3{})
	b := addBox(reg, core.NewVec3(4, 0, 0))

	ti := New(reg, nil)
	assert.Nil(t, ti.Gizmo())

	require.NoError(t, reg.Select(a, false, false))
	require.NotNil(t, ti.Gizmo())
	assert.Equal(t, ElementsFullTRS, ti.Gizmo().Elements)
	assert.Equal(t, []*scene.Object{a}, ti.Gizmo().Targets)

	require.NoError(t, reg.Select(b, false, false))
	assert.Equal(t, ElementsTranslateRotateUniformScale, ti.Gizmo().Elements)
	assert.InDelta(t, 2.0, ti.Gizmo().Pivot.X, 1e-9)

	require.NoError(t, reg.History().Undo())
	assert.Equal(t, []*scene.Object{a}, ti.Gizmo().Targets, "undo refreshes the gizmo")

	require.NoError(t, reg.ClearSelection())
	assert.Nil(t, ti.Gizmo())
}

func TestTransformInteraction_ElementChoice(t *testing.T) {
	tests := []struct {
		name       string
		selected   int
		scaling    bool
		nonUniform bool
		want       Elements
	}{
		{"single full", 1, true, true, ElementsFullTRS},
		{"single uniform only", 1, true, false, ElementsTranslateRotateUniformScale},
		{"multi", 2, true, true, ElementsTranslateRotateUniformScale},
		{"no scaling", 1, false, true, ElementsTranslateRotate},
		{"no scaling multi", 2, false, false, ElementsTranslateRotate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newScene(t)
			var objs []*scene.Object
			for i := 0; i < tt.selected; i++ {
				objs = append(objs, addBox(reg, core.NewVec3(float64(i)*3, 0, 0)))
			}
			require.NoError(t, reg.SetSelection(objs))

			ti := New(reg, nil)
			ti.SetEnableScaling(tt.scaling)
			ti.SetEnableNonUniformScaling(tt.nonUniform)
			require.NotNil(t, ti.Gizmo())
			assert.Equal(t, tt.want, ti.Gizmo().Elements)
		})
	}
}

func TestTransformInteraction_EnabledCallback(t *testing.T) {
	reg := newScene(t)
	a := addBox(reg, core.Vec3{})
	toolActive := true

	ti := New(reg, func() bool { return !toolActive })
	require.NoError(t, reg.Select(a, false, false))
	assert.Nil(t, ti.Gizmo())
	assert.ErrorIs(t, ti.Translate(core.NewVec3(1, 0, 0)), ErrNoGizmo)

	toolActive = false
	ti.ForceUpdate()
	assert.NotNil(t, ti.Gizmo())
}

func TestTransformInteraction_TranslateIsOneUndoStep(t *testing.T) {
	reg := newScene(t)
	a := addBox(reg, core.Vec3{})
	b := addBox(reg, core.NewVec3(4, 0, 0))
	require.NoError(t, reg.SetSelection([]*scene.Object{a, b}))
	ti := New(reg, nil)

	require.NoError(t, ti.Translate(core.NewVec3(0, 2, 0)))
	assert.InDelta(t, 2.0, a.Placement().Translation.Y, 1e-9)
	assert.InDelta(t, 2.0, b.Placement().Translation.Y, 1e-9)
	assert.InDelta(t, 2.0, ti.Gizmo().Pivot.Y, 1e-9)
	assert.Equal(t, LabelTranslate, reg.History().UndoLabel())

	require.NoError(t, reg.History().Undo())
	assert.Equal(t, core.Vec3{}, a.Placement().Translation)
	assert.Equal(t, core.NewVec3(4, 0, 0), b.Placement().Translation)
	assert.InDelta(t, 0.0, ti.Gizmo().Pivot.Y, 1e-9, "undo moves the pivot with the targets")

	require.NoError(t, reg.History().Redo())
	assert.InDelta(t, 2.0, ti.Gizmo().Pivot.Y, 1e-9)

	ti.Shutdown()
	require.NoError(t, reg.History().Undo())
	assert.Nil(t, ti.Gizmo())
}

func TestTransformInteraction_RotateAndScale(t *testing.T) {
	reg := newScene(t)
	a := addBox(reg, core.Vec3{})
	require.NoError(t, reg.Select(a, false, false))
	ti := New(reg, nil)

	require.NoError(t, ti.Rotate(core.NewVec3(0, 0.5, 0)))
	assert.InDelta(t, 0.5, a.Placement().Rotation.Y, 1e-9)

	require.NoError(t, ti.Scale(core.NewVec3(2, 1, 1)))
	assert.Equal(t, core.NewVec3(2, 1, 1), a.Placement().Scale)
	assert.Equal(t, a.Placement(), a.Actor().Transform())

	assert.ErrorIs(t, ti.Scale(core.NewVec3(0, 1, 1)), ErrInvalidScaleStep)

	ti.SetEnableNonUniformScaling(false)
	assert.ErrorIs(t, ti.Scale(core.NewVec3(2, 1, 1)), ErrNonUniformScale)
	require.NoError(t, ti.Scale(core.NewVec3(0.5, 0.5, 0.5)))
	assert.Equal(t, core.NewVec3(1, 0.5, 0.5), a.Placement().Scale)

	ti.SetEnableScaling(false)
	assert.ErrorIs(t, ti.Scale(core.NewVec3(2, 2, 2)), ErrScalingDisabled)

	undo, _ := reg.History().Len()
	require.NoError(t, ti.Translate(core.Vec3{}))
	u, _ := reg.History().Len()
	assert.Equal(t, undo, u, "a zero move records nothing")
}

func TestTransformInteraction_Shutdown(t *testing.T) {
	reg := newScene(t)
	a := addBox(reg, core.Vec3{})
	ti := New(reg, nil)
	require.NoError(t, reg.Select(a, false, false))
	require.NotNil(t, ti.Gizmo())

	ti.Shutdown()
	assert.Nil(t, ti.Gizmo())

	require.NoError(t, reg.ClearSelection())
	require.NoError(t, reg.Select(a, false, false))
	assert.Nil(t, ti.Gizmo(), "no updates after shutdown")
	ti.ForceUpdate()
	assert.Nil(t, ti.Gizmo())
}
