package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoverCommandParse(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/cover/main_door/command"
	r := coverCommandExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(matches[0][1], "main_door", "door extract")
}

func TestCoverCommandParseFail(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/cover/main_door/state"
	r := coverCommandExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(len(matches), 0, "no matches")
}

func TestObservationParse(t *testing.T) {

	assert := assert.New(t)

	statestream := "homeassistant/statestream"
	topic := "homeassistant/statestream/binary_sensor/garage_open/state"
	r := observationExtractor(statestream)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(matches[0][1], "binary_sensor", "domain extract")
	assert.Equal(matches[0][2], "garage_open", "object extract")
}

func TestObservationParseFail(t *testing.T) {

	assert := assert.New(t)

	statestream := "homeassistant/statestream"
	topic := "homeassistant/statestream/binary_sensor/garage_open/last_changed"
	r := observationExtractor(statestream)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(len(matches), 0, "no matches")
}
