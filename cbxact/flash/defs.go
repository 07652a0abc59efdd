/**
 * Licensed to the Apache Software Foundation (ASF) under one
 * or more contributor license agreements.  See the NOTICE file
 * distributed with this work for additional information
 * regarding copyright ownership.  The ASF licenses this file
 * to you under the Apache License, Version 2.0 (the
 * "License"); you may not use this file except in compliance
 * with the License.  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package flash

// State of a flash session.  A session only ever moves forward; Complete
// and Failed are terminal.
type State int

const (
	SESSION_STATE_IDLE State = iota
	SESSION_STATE_PROBING
	SESSION_STATE_ERASING
	SESSION_STATE_ADDRESSING
	SESSION_STATE_WRITING
	SESSION_STATE_VERIFYING
	SESSION_STATE_JUMPING
	SESSION_STATE_COMPLETE
	SESSION_STATE_FAILED
)

var stateNameMap = map[State]string{
	SESSION_STATE_IDLE:       "idle",
	SESSION_STATE_PROBING:    "probing",
	SESSION_STATE_ERASING:    "erasing",
	SESSION_STATE_ADDRESSING: "addressing",
	SESSION_STATE_WRITING:    "writing",
	SESSION_STATE_VERIFYING:  "verifying",
	SESSION_STATE_JUMPING:    "jumping-to-app",
	SESSION_STATE_COMPLETE:   "complete",
	SESSION_STATE_FAILED:     "failed",
}

func (s State) String() string {
	name := stateNameMap[s]
	if name == "" {
		return "???"
	}
	return name
}
