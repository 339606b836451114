package poetcar

import (
	"math"

	"github.com/ByteArena/box2d"
)

const (
	// Chassis geometry and physical properties
	ChassisWidth    float64 = 3.5
	ChassisHeight   float64 = 1.4
	ChassisDensity  float64 = 2.5
	ChassisFriction float64 = 0.5

	// Wheel geometry and physical properties
	WheelRadius   float64 = 0.6
	WheelDistance float64 = 1.2 // x offset of each wheel from chassis centre
	WheelDensity  float64 = 1.5
	WheelFriction float64 = 1.8

	// Drive joints
	MotorTorque float64 = 700.0
	DriveSpeed  float64 = 45.0 // full-throttle wheel motor speed
	SteerSpeed  float64 = 7.0  // differential added to each wheel per unit steering
)

// car implements the vehicle model: a dynamic chassis, two dynamic
// wheels, and two motorized revolute joints binding each wheel to the
// chassis. A car is owned by exactly one environment instance and is
// never shared between instances.
type car struct {
	world *box2d.B2World

	chassis    *box2d.B2Body
	wheelFront *box2d.B2Body
	wheelRear  *box2d.B2Body

	jointFront *box2d.B2RevoluteJoint
	jointRear  *box2d.B2RevoluteJoint
}

// newCar creates a new car in world with the chassis centred at
// position
func newCar(world *box2d.B2World, position box2d.B2Vec2) *car {
	c := &car{world: world}

	chassisDef := box2d.MakeB2BodyDef()
	chassisDef.Type = 2 // Dynamic body
	chassisDef.Position = position
	c.chassis = world.CreateBody(&chassisDef)

	chassisShape := box2d.NewB2PolygonShape()
	chassisShape.SetAsBox(ChassisWidth/2, ChassisHeight/2)

	chassisFix := box2d.MakeB2FixtureDef()
	chassisFix.Shape = chassisShape
	chassisFix.Density = ChassisDensity
	chassisFix.Friction = ChassisFriction
	c.chassis.CreateFixtureFromDef(&chassisFix)

	wheelOffsetY := -(ChassisHeight/2 + WheelRadius)
	frontPos := box2d.MakeB2Vec2(position.X+WheelDistance,
		position.Y+wheelOffsetY)
	rearPos := box2d.MakeB2Vec2(position.X-WheelDistance,
		position.Y+wheelOffsetY)

	c.wheelFront = c.newWheel(frontPos, WheelRadius)
	c.wheelRear = c.newWheel(rearPos, WheelRadius)

	c.jointFront = c.newWheelJoint(c.wheelFront, frontPos)
	c.jointRear = c.newWheelJoint(c.wheelRear, rearPos)

	return c
}

// newWheel creates a single dynamic wheel body at position
func (c *car) newWheel(position box2d.B2Vec2, radius float64) *box2d.B2Body {
	wheelDef := box2d.MakeB2BodyDef()
	wheelDef.Type = 2 // Dynamic body
	wheelDef.Position = position
	wheel := c.world.CreateBody(&wheelDef)

	wheelShape := box2d.NewB2CircleShape()
	wheelShape.M_radius = radius

	wheelFix := box2d.MakeB2FixtureDef()
	wheelFix.Shape = wheelShape
	wheelFix.Density = WheelDensity
	wheelFix.Friction = WheelFriction
	wheel.CreateFixtureFromDef(&wheelFix)

	return wheel
}

// newWheelJoint creates a motorized revolute joint binding wheel to the
// chassis at the world point anchor
func (c *car) newWheelJoint(wheel *box2d.B2Body,
	anchor box2d.B2Vec2) *box2d.B2RevoluteJoint {
	jointDef := box2d.MakeB2RevoluteJointDef()
	jointDef.Initialize(c.chassis, wheel, anchor)
	jointDef.EnableMotor = true
	jointDef.MaxMotorTorque = MotorTorque

	return c.world.CreateJoint(&jointDef).(*box2d.B2RevoluteJoint)
}

// setMotors converts a (steering, throttle) control pair into motor
// speed targets for the two drive joints. Steering adds opposite
// differentials to the front and rear wheels.
func (c *car) setMotors(steer, throttle float64) {
	motorSpeed := throttle * DriveSpeed
	c.jointFront.SetMotorSpeed(motorSpeed + steer*SteerSpeed)
	c.jointRear.SetMotorSpeed(motorSpeed - steer*SteerSpeed)
}

// lidar reports the range to the nearest fixture along a fan of
// numSensors rays cast from the chassis centre. Ray angles are evenly
// spaced over [minAngle, maxAngle], inclusive of both ends, and each
// ray has length maxDistance. A ray that hits nothing reports
// maxDistance. For a fixed world state repeated scans return identical
// results.
func (c *car) lidar(numSensors int, maxDistance, minAngle,
	maxAngle float64) []float64 {
	origin := c.chassis.GetPosition()
	ranges := make([]float64, numSensors)

	for i := 0; i < numSensors; i++ {
		angle := minAngle
		if numSensors > 1 {
			angle += (maxAngle - minAngle) * float64(i) / float64(numSensors-1)
		}
		end := box2d.MakeB2Vec2(
			origin.X+maxDistance*math.Cos(angle),
			origin.Y+maxDistance*math.Sin(angle),
		)

		hit := false
		fraction := 1.0
		c.world.RayCast(func(fixture *box2d.B2Fixture, point,
			normal box2d.B2Vec2, f float64) float64 {
			hit = true
			fraction = f

			// Clip the ray so that only nearer fixtures report
			return f
		}, origin, end)

		if hit {
			ranges[i] = fraction * maxDistance
		} else {
			ranges[i] = maxDistance
		}
	}
	return ranges
}

// matchState moves this car to the same pose and motion as src. The
// underlying bodies remain distinct objects; only values are copied.
func (c *car) matchState(src *car) {
	c.chassis.SetTransform(src.chassis.GetPosition(), src.chassis.GetAngle())
	c.chassis.SetLinearVelocity(src.chassis.GetLinearVelocity())
	c.chassis.SetAngularVelocity(src.chassis.GetAngularVelocity())

	c.wheelFront.SetTransform(src.wheelFront.GetPosition(),
		src.wheelFront.GetAngle())
	c.wheelFront.SetLinearVelocity(src.wheelFront.GetLinearVelocity())
	c.wheelFront.SetAngularVelocity(src.wheelFront.GetAngularVelocity())

	c.wheelRear.SetTransform(src.wheelRear.GetPosition(),
		src.wheelRear.GetAngle())
	c.wheelRear.SetLinearVelocity(src.wheelRear.GetLinearVelocity())
	c.wheelRear.SetAngularVelocity(src.wheelRear.GetAngularVelocity())
}
