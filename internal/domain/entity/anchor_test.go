package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnchorKeyDisabled(t *testing.T) {
	p := ReminderPolicy{Enabled: false}
	act := &ActivityContext{Kind: ActivityKindPlaying, Name: "Dota 2", SteamAppID: 570}
	assert.Equal(t, "", p.AnchorKey(StatusOnline, act))
}

func TestAnchorKeyRichPresenceOnly(t *testing.T) {
	p := ReminderPolicy{Enabled: true, RichPresenceOnly: true}
	assert.Equal(t, "", p.AnchorKey(StatusOnline, nil))

	act := &ActivityContext{Kind: ActivityKindPlaying, Name: "Dota 2"}
	assert.Equal(t, "playing:online", p.AnchorKey(StatusOnline, act))
}

func TestAnchorKeyRequireSteamApp(t *testing.T) {
	p := ReminderPolicy{Enabled: true, RequireSteamApp: true}

	assert.Equal(t, "", p.AnchorKey(StatusOnline, nil))
	assert.Equal(t, "", p.AnchorKey(StatusOnline, &ActivityContext{Kind: ActivityKindPlaying, Name: "本地游戏"}))

	act := &ActivityContext{Kind: ActivityKindPlaying, Name: "Dota 2", SteamAppID: 570}
	assert.Equal(t, "playing:570:online", p.AnchorKey(StatusOnline, act))
}

func TestAnchorKeyDefault(t *testing.T) {
	p := ReminderPolicy{Enabled: true}

	assert.Equal(t, "none:idle", p.AnchorKey(StatusIdle, nil))

	act := &ActivityContext{Kind: ActivityKindPlaying, Name: "Dota 2"}
	assert.Equal(t, "playing:online", p.AnchorKey(StatusOnline, act))

	// 状态变化会改变键，由调用方据此重置锚点
	assert.NotEqual(t, p.AnchorKey(StatusOnline, act), p.AnchorKey(StatusIdle, act))
}
