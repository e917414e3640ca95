package av1

// SequenceHeader holds the subset of the AV1 sequence_header_obu() syntax
// the pipeline needs downstream: the maximum frame dimensions, used for
// resolution tagging on the written segment's manifest entry.
type SequenceHeader struct {
	SeqProfile     uint8
	StillPicture   bool
	MaxFrameWidth  int
	MaxFrameHeight int
}

// ParseSequenceHeader decodes a sequence_header_obu() payload (the OBU
// payload bytes, not including the OBU header) far enough to recover
// max_frame_width_minus_1 / max_frame_height_minus_1.
//
// Failures here are never pipeline errors: callers treat them as
// "resolution unavailable" and continue, per the downstream resolution
// tagging being best-effort.
func ParseSequenceHeader(payload []byte) (SequenceHeader, error) {
	if len(payload) == 0 {
		return SequenceHeader{}, &UnexpectedEOFError{Expected: 1, Actual: 0}
	}

	r := newBitReader(payload)
	var h SequenceHeader

	seqProfile, err := r.f(3)
	if err != nil {
		return SequenceHeader{}, err
	}
	h.SeqProfile = uint8(seqProfile)

	stillPicture, err := r.f(1)
	if err != nil {
		return SequenceHeader{}, err
	}
	h.StillPicture = stillPicture == 1

	reducedStillPictureHeader, err := r.f(1)
	if err != nil {
		return SequenceHeader{}, err
	}

	if reducedStillPictureHeader == 1 {
		if _, err := r.f(5); err != nil { // seq_level_idx[0]
			return SequenceHeader{}, err
		}
	} else {
		if err := skipOperatingPoints(r); err != nil {
			return SequenceHeader{}, err
		}
	}

	frameWidthBitsMinus1, err := r.f(4)
	if err != nil {
		return SequenceHeader{}, err
	}
	frameHeightBitsMinus1, err := r.f(4)
	if err != nil {
		return SequenceHeader{}, err
	}

	maxFrameWidthMinus1, err := r.f(int(frameWidthBitsMinus1) + 1)
	if err != nil {
		return SequenceHeader{}, err
	}
	maxFrameHeightMinus1, err := r.f(int(frameHeightBitsMinus1) + 1)
	if err != nil {
		return SequenceHeader{}, err
	}

	h.MaxFrameWidth = int(maxFrameWidthMinus1) + 1
	h.MaxFrameHeight = int(maxFrameHeightMinus1) + 1

	return h, nil
}

// skipOperatingPoints consumes timing_info, decoder_model_info, and the
// operating_points_cnt_minus_1 loop, none of which this pipeline consumes,
// so only the bit offset matters.
func skipOperatingPoints(r *bitReader) error {
	timingInfoPresent, err := r.f(1)
	if err != nil {
		return err
	}
	decoderModelInfoPresent := uint64(0)
	if timingInfoPresent == 1 {
		// num_units_in_display_tick, time_scale
		if _, err := r.f(32); err != nil {
			return err
		}
		if _, err := r.f(32); err != nil {
			return err
		}
		equalPictureInterval, err := r.f(1)
		if err != nil {
			return err
		}
		if equalPictureInterval == 1 {
			if _, err := r.uvlc(); err != nil {
				return err
			}
		}
		decoderModelInfoPresent, err = r.f(1)
		if err != nil {
			return err
		}
		if decoderModelInfoPresent == 1 {
			// buffer_delay_length_minus_1(5), num_units_in_decoding_tick(32),
			// buffer_removal_time_length_minus_1(5), frame_presentation_time_length_minus_1(5)
			if _, err := r.f(5); err != nil {
				return err
			}
			if _, err := r.f(32); err != nil {
				return err
			}
			if _, err := r.f(5); err != nil {
				return err
			}
			if _, err := r.f(5); err != nil {
				return err
			}
		}
	}

	initialDisplayDelayPresent, err := r.f(1)
	if err != nil {
		return err
	}

	operatingPointsCntMinus1, err := r.f(5)
	if err != nil {
		return err
	}

	for i := uint64(0); i <= operatingPointsCntMinus1; i++ {
		if _, err := r.f(12); err != nil { // operating_point_idc[i]
			return err
		}
		seqLevelIdx, err := r.f(5)
		if err != nil {
			return err
		}
		if seqLevelIdx > 7 {
			if _, err := r.f(1); err != nil { // seq_tier[i]
				return err
			}
		}
		if decoderModelInfoPresent == 1 {
			if _, err := r.f(1); err != nil { // decoder_model_present_for_this_op[i]
				return err
			}
		}
		if initialDisplayDelayPresent == 1 {
			present, err := r.f(1)
			if err != nil {
				return err
			}
			if present == 1 {
				if _, err := r.f(4); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
