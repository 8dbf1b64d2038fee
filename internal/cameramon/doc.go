// Package cameramon watches udev netlink events for camera attach and
// detach so the daemon can report capture hardware presence without
// shelling out to udevadm.
package cameramon
