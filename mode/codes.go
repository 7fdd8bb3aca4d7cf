package mode

import (
	"unsafe"

	"github.com/mrshiposha/drm"
	"github.com/mrshiposha/drm/ioctl"
)

func iowr(fn uint8, sz uintptr) uint32 {
	return ioctl.NewCode(ioctl.Read|ioctl.Write, uint16(sz), drm.IOCTLBase, fn)
}

var (
	// DRM_IOWR(0xA0, struct drm_mode_card_res)
	IOCTLModeResources = iowr(0xA0, unsafe.Sizeof(sysResources{}))

	// DRM_IOWR(0xA1, struct drm_mode_crtc)
	IOCTLModeGetCrtc = iowr(0xA1, unsafe.Sizeof(sysCrtc{}))

	// DRM_IOWR(0xA2, struct drm_mode_crtc)
	IOCTLModeSetCrtc = iowr(0xA2, unsafe.Sizeof(sysCrtc{}))

	// DRM_IOWR(0xA3, struct drm_mode_cursor)
	IOCTLModeCursor = iowr(0xA3, unsafe.Sizeof(sysCursor{}))

	// DRM_IOWR(0xA4, struct drm_mode_crtc_lut)
	IOCTLModeGetGamma = iowr(0xA4, unsafe.Sizeof(sysCrtcLut{}))

	// DRM_IOWR(0xA5, struct drm_mode_crtc_lut)
	IOCTLModeSetGamma = iowr(0xA5, unsafe.Sizeof(sysCrtcLut{}))

	// DRM_IOWR(0xA6, struct drm_mode_get_encoder)
	IOCTLModeGetEncoder = iowr(0xA6, unsafe.Sizeof(sysGetEncoder{}))

	// DRM_IOWR(0xA7, struct drm_mode_get_connector)
	IOCTLModeGetConnector = iowr(0xA7, unsafe.Sizeof(sysGetConnector{}))

	// DRM_IOWR(0xAA, struct drm_mode_get_property)
	IOCTLModeGetProperty = iowr(0xAA, unsafe.Sizeof(sysGetProperty{}))

	// DRM_IOWR(0xAB, struct drm_mode_connector_set_property)
	IOCTLModeSetProperty = iowr(0xAB, unsafe.Sizeof(sysConnectorSetProperty{}))

	// DRM_IOWR(0xAC, struct drm_mode_get_blob)
	IOCTLModeGetPropBlob = iowr(0xAC, unsafe.Sizeof(sysGetBlob{}))

	// DRM_IOWR(0xAD, struct drm_mode_fb_cmd)
	IOCTLModeGetFB = iowr(0xAD, unsafe.Sizeof(sysFBCmd{}))

	// DRM_IOWR(0xAE, struct drm_mode_fb_cmd)
	IOCTLModeAddFB = iowr(0xAE, unsafe.Sizeof(sysFBCmd{}))

	// DRM_IOWR(0xAF, unsigned int)
	IOCTLModeRmFB = iowr(0xAF, unsafe.Sizeof(uint32(0)))

	// DRM_IOWR(0xB0, struct drm_mode_crtc_page_flip)
	IOCTLModePageFlip = iowr(0xB0, unsafe.Sizeof(sysPageFlip{}))

	// DRM_IOWR(0xB1, struct drm_mode_fb_dirty_cmd)
	IOCTLModeDirtyFB = iowr(0xB1, unsafe.Sizeof(sysFBDirty{}))

	// DRM_IOWR(0xB2, struct drm_mode_create_dumb)
	IOCTLModeCreateDumb = iowr(0xB2, unsafe.Sizeof(sysCreateDumb{}))

	// DRM_IOWR(0xB3, struct drm_mode_map_dumb)
	IOCTLModeMapDumb = iowr(0xB3, unsafe.Sizeof(sysMapDumb{}))

	// DRM_IOWR(0xB4, struct drm_mode_destroy_dumb)
	IOCTLModeDestroyDumb = iowr(0xB4, unsafe.Sizeof(sysDestroyDumb{}))

	// DRM_IOWR(0xB5, struct drm_mode_get_plane_res)
	IOCTLModeGetPlaneResources = iowr(0xB5, unsafe.Sizeof(sysPlaneResources{}))

	// DRM_IOWR(0xB6, struct drm_mode_get_plane)
	IOCTLModeGetPlane = iowr(0xB6, unsafe.Sizeof(sysGetPlane{}))

	// DRM_IOWR(0xB7, struct drm_mode_set_plane)
	IOCTLModeSetPlane = iowr(0xB7, unsafe.Sizeof(sysSetPlane{}))

	// DRM_IOWR(0xB8, struct drm_mode_fb_cmd2)
	IOCTLModeAddFB2 = iowr(0xB8, unsafe.Sizeof(sysFBCmd2{}))

	// DRM_IOWR(0xB9, struct drm_mode_obj_get_properties)
	IOCTLModeObjGetProperties = iowr(0xB9, unsafe.Sizeof(sysObjGetProperties{}))

	// DRM_IOWR(0xBA, struct drm_mode_obj_set_property)
	IOCTLModeObjSetProperty = iowr(0xBA, unsafe.Sizeof(sysObjSetProperty{}))

	// DRM_IOWR(0xBB, struct drm_mode_cursor2)
	IOCTLModeCursor2 = iowr(0xBB, unsafe.Sizeof(sysCursor2{}))

	// DRM_IOWR(0xBC, struct drm_mode_atomic)
	IOCTLModeAtomic = iowr(0xBC, unsafe.Sizeof(sysAtomic{}))

	// DRM_IOWR(0xBD, struct drm_mode_create_blob)
	IOCTLModeCreatePropBlob = iowr(0xBD, unsafe.Sizeof(sysCreateBlob{}))

	// DRM_IOWR(0xBE, struct drm_mode_destroy_blob)
	IOCTLModeDestroyPropBlob = iowr(0xBE, unsafe.Sizeof(sysDestroyBlob{}))

	// DRM_IOWR(0xCE, struct drm_mode_fb_cmd2)
	IOCTLModeGetFB2 = iowr(0xCE, unsafe.Sizeof(sysFBCmd2{}))
)
